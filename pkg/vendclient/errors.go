package vendclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrSessionExpired means the access token was rejected and could not be
	// refreshed; the user has to sign in again.
	ErrSessionExpired = errors.New("session expired")

	ErrMissingProductID = errors.New("product has no id")
)

// APIError is any non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	msg := FirstMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg, Body: body}
}

// Message returns the text to show a user for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// FirstMessage extracts the first validation message from an error body,
// keeping the document order of the object keys:
//
//	{"username": ["This field is required."], "password": [...]}
//
// yields "This field is required.". Plain text bodies come back as-is.
func FirstMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if !json.Valid(body) {
		return string(body)
	}
	return messageFrom(body)
}

func messageFrom(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return ""
		}
		return messageFrom(items[0])
	case '{':
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return ""
		}
		if !dec.More() {
			return ""
		}
		if _, err := dec.Token(); err != nil {
			return ""
		}
		var first json.RawMessage
		if err := dec.Decode(&first); err != nil {
			return ""
		}
		return messageFrom(first)
	case 'n':
		return ""
	default:
		return strings.TrimSpace(string(raw))
	}
}
