package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRetryClient_Success(t *testing.T) {
	mockClient := mocks.NewMockClient(t)
	retryClient := gateway.NewRetryClient(mockClient, time.Millisecond, 3)

	params := gateway.CaptureParams{AmountToCapture: 500}
	expected := &gateway.PaymentIntent{ID: "pi_1", Status: gateway.StatusSucceeded}

	mockClient.On("CapturePaymentIntent", mock.Anything, "pi_1", params, "idem").
		Return(expected, nil).
		Once()

	resp, err := retryClient.CapturePaymentIntent(context.Background(), "pi_1", params, "idem")

	require.NoError(t, err)
	assert.Equal(t, expected, resp)
}

func TestRetryClient_RetriesOn5xx(t *testing.T) {
	mockClient := mocks.NewMockClient(t)
	retryClient := gateway.NewRetryClient(mockClient, time.Millisecond, 3)

	serverErr := &gateway.Error{Type: "api_error", Message: "boom", StatusCode: http.StatusInternalServerError}
	expected := &gateway.Refund{ID: "re_1"}

	mockClient.On("CreateRefund", mock.Anything, mock.Anything, "idem").
		Return(nil, serverErr).
		Twice()
	mockClient.On("CreateRefund", mock.Anything, mock.Anything, "idem").
		Return(expected, nil).
		Once()

	resp, err := retryClient.CreateRefund(context.Background(), gateway.RefundParams{PaymentIntent: "pi_1"}, "idem")

	require.NoError(t, err)
	assert.Equal(t, "re_1", resp.ID)
}

func TestRetryClient_RetriesOnRateLimit(t *testing.T) {
	mockClient := mocks.NewMockClient(t)
	retryClient := gateway.NewRetryClient(mockClient, time.Millisecond, 2)

	rateLimited := &gateway.Error{Type: "invalid_request_error", Code: "rate_limit", StatusCode: http.StatusTooManyRequests}

	mockClient.On("GetPaymentIntent", mock.Anything, "pi_1").
		Return(nil, rateLimited).
		Times(2)

	_, err := retryClient.GetPaymentIntent(context.Background(), "pi_1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum retries exceeded")
	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, gwErr.StatusCode)
}

func TestRetryClient_DoesNotRetryCardErrors(t *testing.T) {
	mockClient := mocks.NewMockClient(t)
	retryClient := gateway.NewRetryClient(mockClient, time.Millisecond, 3)

	declined := &gateway.Error{Type: "card_error", Code: "card_declined", StatusCode: http.StatusPaymentRequired}

	mockClient.On("CreatePaymentIntent", mock.Anything, mock.Anything, "idem").
		Return(nil, declined).
		Once()

	_, err := retryClient.CreatePaymentIntent(context.Background(), gateway.PaymentIntentParams{Amount: 100, Currency: "usd"}, "idem")

	assert.Equal(t, declined, err)
}

func TestRetryClient_RetriesNetworkErrors(t *testing.T) {
	mockClient := mocks.NewMockClient(t)
	retryClient := gateway.NewRetryClient(mockClient, time.Millisecond, 2)

	mockClient.On("GetSetupIntent", mock.Anything, "seti_1").
		Return(nil, errors.New("connection reset")).
		Once()
	mockClient.On("GetSetupIntent", mock.Anything, "seti_1").
		Return(&gateway.SetupIntent{ID: "seti_1"}, nil).
		Once()

	resp, err := retryClient.GetSetupIntent(context.Background(), "seti_1")

	require.NoError(t, err)
	assert.Equal(t, "seti_1", resp.ID)
}

func TestRetryClient_StopsOnCanceledContext(t *testing.T) {
	mockClient := mocks.NewMockClient(t)
	retryClient := gateway.NewRetryClient(mockClient, time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryClient.GetPaymentIntent(ctx, "pi_1")

	assert.ErrorIs(t, err, context.Canceled)
}
