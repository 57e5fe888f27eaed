package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// CheckoutRequest describes one payment-gateway checkout session.
type CheckoutRequest struct {
	OwnerID     string          `json:"ownerId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SuccessURL  string          `json:"successUrl,omitempty"`
	CancelURL   string          `json:"cancelUrl,omitempty"`
}

// CreateCheckoutSession asks the backend to open a gateway checkout session
// and returns the redirect URL. Single call, no retry; the surrounding flow
// either follows the redirect or surfaces the failure.
func CreateCheckoutSession(ctx context.Context, t *Transport, req CheckoutRequest) (string, error) {
	raw, err := t.Request(ctx, http.MethodPost, "/checkout/sessions", req)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	if raw == nil {
		return "", errors.New("checkout response had no body")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("checkout response missing redirect url")
	}
	return out.URL, nil
}
