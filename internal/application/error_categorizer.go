package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if errors.Is(err, domain.ErrTransactionNotFound) {
		return CategoryClientError
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeInvalidAmount,
			domain.ErrCodeUnsupportedCurrency,
			domain.ErrCodeLogic:
			return CategoryBusinessRule
		case domain.ErrCodeSignatureInvalid,
			domain.ErrCodeNotSupportedEvent,
			domain.ErrCodeUnsupportedAction,
			domain.ErrCodePaymentMethodMissing:
			return CategoryClientError
		}
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeEmptyRequest, ErrCodeRequestTooLarge, ErrCodeJobPayloadInvalid:
			return CategoryClientError
		case ErrCodeReauthorization:
			return CategoryPermanent
		case ErrCodeInternal:
			return CategoryInfrastructure
		}
	}

	if gwErr, ok := gateway.IsGatewayError(err); ok {
		if gwErr.IsRetryable() {
			return CategoryTransient
		}
		if gwErr.IsCardError() {
			return CategoryPermanent
		}
		return CategoryClientError
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps webhook processing errors to the status the Gateway sees.
// Unsupported events are acknowledged so the Gateway stops re-delivering them.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok && svcErr.Code != ErrCodeInternal {
		return svcErr.HTTPStatus
	}

	if domain.IsErrorCode(err, domain.ErrCodeNotSupportedEvent) {
		return http.StatusOK
	}

	if domain.IsErrorCode(err, domain.ErrCodeLogic) ||
		domain.IsErrorCode(err, domain.ErrCodeUnsupportedAction) ||
		domain.IsErrorCode(err, domain.ErrCodeInvalidAmount) ||
		domain.IsErrorCode(err, domain.ErrCodeUnsupportedCurrency) ||
		domain.IsErrorCode(err, domain.ErrCodeSignatureInvalid) {
		return http.StatusBadRequest
	}

	// Default to 500
	return http.StatusInternalServerError
}

// ToErrorCode clear error code for logs
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if gwErr, ok := gateway.IsGatewayError(err); ok && gwErr.Code != "" {
		return gwErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	return ErrCodeInternal
}

// PublicMessage is the message safe to return to the caller.
func PublicMessage(err error) string {
	if svcErr, ok := IsServiceError(err); ok && svcErr.Code != ErrCodeInternal {
		return svcErr.Message
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && ToHTTPStatus(err) != http.StatusInternalServerError {
		return domainErr.Message
	}
	return "An internal error occurred"
}
