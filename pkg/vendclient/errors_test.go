package vendclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", ""},
		{"whitespace", "  \n", ""},
		{"plain text", "Bad Gateway", "Bad Gateway"},
		{"json string", `"nope"`, "nope"},
		{"error key", `{"error":"Insufficient deposit"}`, "Insufficient deposit"},
		{"detail key", `{"detail":"Given token not valid for any token type","code":"token_not_valid"}`, "Given token not valid for any token type"},
		{"field list keeps document order", `{"username":["A user with that username already exists."],"password":["This field is required."]}`, "A user with that username already exists."},
		{"document order not alphabetical", `{"zeta":["last letter"],"alpha":["first letter"]}`, "last letter"},
		{"top level list", `["first","second"]`, "first"},
		{"nested object", `{"product":{"cost":["Cost must be a multiple of 0.05"]}}`, "Cost must be a multiple of 0.05"},
		{"empty object", `{}`, ""},
		{"empty list", `[]`, ""},
		{"null", `null`, ""},
		{"number", `{"code":42}`, "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FirstMessage([]byte(tc.body)))
		})
	}
}

func TestNewAPIError_FallsBackToStatusText(t *testing.T) {
	err := newAPIError(http.StatusInternalServerError, nil)
	assert.Equal(t, "Internal Server Error", err.Message)
	assert.Equal(t, "backend returned 500: Internal Server Error", err.Error())
}

func TestMessage(t *testing.T) {
	apiErr := newAPIError(http.StatusBadRequest, []byte(`{"error":"Product is sold out"}`))
	assert.Equal(t, "Product is sold out", Message(fmt.Errorf("buy: %w", apiErr)))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
