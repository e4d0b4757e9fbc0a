package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeUnsupportedCurrency  = "UNSUPPORTED_CURRENCY"
	ErrCodeUnsupportedAction    = "UNSUPPORTED_ACTION"
	ErrCodeSignatureInvalid     = "SIGNATURE_INVALID"
	ErrCodeNotSupportedEvent    = "NOT_SUPPORTED_EVENT"
	ErrCodeLogic                = "LOGIC_ERROR"
	ErrCodeTransactionNotFound  = "TRANSACTION_NOT_FOUND"
	ErrCodePaymentMethodMissing = "METHOD_NOT_FOUND"
)

var ErrTransactionNotFound = errors.New("payment transaction not found")

func NewInvalidAmountError(amount string, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %s: %s", amount, reason),
	}
}

func NewUnsupportedCurrencyError(currency string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedCurrency,
		Message: fmt.Sprintf("currency %q is not supported", currency),
	}
}

func NewUnsupportedActionError(action string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedAction,
		Message: fmt.Sprintf("action %q is not supported", action),
	}
}

func NewSignatureInvalidError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeSignatureInvalid,
		Message: "webhook signature verification failed",
		Err:     err,
	}
}

func NewNotSupportedEventError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotSupportedEvent,
		Message: reason,
	}
}

func NewLogicError(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    ErrCodeLogic,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewTransactionNotFoundError(id int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeTransactionNotFound,
		Message: fmt.Sprintf("payment transaction %d not found", id),
		Err:     ErrTransactionNotFound,
	}
}

func NewPaymentMethodMissingError(identifier string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentMethodMissing,
		Message: fmt.Sprintf("payment method %q is not configured", identifier),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
