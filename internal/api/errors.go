package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is any non-2xx outcome of an authenticated exchange. Message is
// the server-supplied message when one was present in the response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAuthExpired reports whether err is a 401 from the server. By the time
// the caller sees it the session store has already been cleared.
func IsAuthExpired(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

// newAPIError builds an APIError from a response body, preferring the
// server's own message field.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed: %d", status)
	}
	return &APIError{Status: status, Message: msg}
}
