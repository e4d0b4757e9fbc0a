package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an API-level failure reported by the Gateway: declines, invalid
// requests, rate limits and server faults.
type Error struct {
	Type        string
	Code        string
	DeclineCode string
	Param       string
	Message     string
	StatusCode  int
}

type errorEnvelope struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Param       string `json:"param"`
		Message     string `json:"message"`
	} `json:"error"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%s/%s]: %s (status: %d)", e.Type, e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Type, e.Message, e.StatusCode)
}

func (e *Error) IsRetryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func (e *Error) IsCardError() bool {
	return e.Type == "card_error"
}

func IsGatewayError(err error) (*Error, bool) {
	var gwErr *Error
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
