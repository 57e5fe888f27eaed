package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"vaad/internal/core"
)

// ChargePostedMessage announces that the worker materialized a recurring
// charge for an owner and month. Amounts travel as decimal strings to avoid
// float rounding on the consumer side.
type ChargePostedMessage struct {
	OwnerID   string    `json:"ownerId"`
	Amount    string    `json:"amount"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChargePostedMessage creates a charge-posted event.
func NewChargePostedMessage(ownerID string, amount decimal.Decimal, month core.Month) *ChargePostedMessage {
	return &ChargePostedMessage{
		OwnerID:   ownerID,
		Amount:    amount.String(),
		Month:     month.String(),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChargePostedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChargePostedMessageFromJSON creates a message from JSON bytes.
func ChargePostedMessageFromJSON(data []byte) (*ChargePostedMessage, error) {
	var msg ChargePostedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
