package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeEmptyRequest      = "EMPTY_REQUEST"
	ErrCodeRequestTooLarge   = "REQUEST_TOO_LARGE"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeReauthorization   = "REAUTHORIZATION_FAILED"
	ErrCodeJobPayloadInvalid = "INVALID_JOB_PAYLOAD"
)

func NewEmptyRequestError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeEmptyRequest,
		Message:    "request content is empty",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewRequestTooLargeError(limit int64) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeRequestTooLarge,
		Message:    fmt.Sprintf("request content exceeds %d bytes", limit),
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewReauthorizationError reports a renewal step the Gateway refused.
func NewReauthorizationError(step string, transactionID int64, reason string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeReauthorization,
		Message:    fmt.Sprintf("%s failed for transaction %d: %s", step, transactionID, reason),
		HTTPStatus: http.StatusBadGateway,
	}
}

func NewInvalidJobPayloadError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeJobPayloadInvalid,
		Message:    "job payload cannot be decoded",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
