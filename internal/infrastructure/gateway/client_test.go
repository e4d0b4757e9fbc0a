package gateway_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) gateway.Config {
	return gateway.Config{
		SecretKey:      "sk_test_123",
		APIVersion:     "2024-06-20",
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	}
}

func TestHTTPClient_CreatePaymentIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-06-20", r.Header.Get("Stripe-Version"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1050", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))
		assert.Equal(t, "manual", r.PostForm.Get("capture_method"))
		assert.Equal(t, "automatic", r.PostForm.Get("confirmation_method"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "order-1", r.PostForm.Get("metadata[order_id]"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[payment_transaction_access_identifier]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":1050,"currency":"usd","status":"requires_capture"}`))
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(testConfig(server.URL), nil, nil, discardLogger())

	pi, err := client.CreatePaymentIntent(context.Background(), gateway.PaymentIntentParams{
		Amount:             1050,
		Currency:           "usd",
		PaymentMethod:      "pm_card_visa",
		CaptureMethod:      "manual",
		ConfirmationMethod: "automatic",
		Confirm:            true,
		Metadata: map[string]string{
			gateway.MetadataOrderID:          "order-1",
			gateway.MetadataAccessIdentifier: "42",
		},
	}, "idem-1")

	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.ID)
	assert.Equal(t, gateway.StatusRequiresCapture, pi.Status)
	assert.Equal(t, int64(1050), pi.Amount)
}

func TestHTTPClient_GetPaymentIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_9", r.URL.Path)
		assert.Empty(t, r.Header.Get("Idempotency-Key"))
		_, _ = w.Write([]byte(`{"id":"pi_9","status":"succeeded"}`))
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(testConfig(server.URL), nil, nil, discardLogger())

	pi, err := client.GetPaymentIntent(context.Background(), "pi_9")

	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSucceeded, pi.Status)
}

func TestHTTPClient_DecodesGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","decline_code":"insufficient_funds","message":"Your card has insufficient funds."}}`))
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(testConfig(server.URL), nil, nil, discardLogger())

	_, err := client.CancelPaymentIntent(context.Background(), "pi_1", gateway.CancelParams{CancellationReason: "abandoned"}, "idem")

	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "card_error", gwErr.Type)
	assert.Equal(t, "card_declined", gwErr.Code)
	assert.Equal(t, "insufficient_funds", gwErr.DeclineCode)
	assert.Equal(t, http.StatusPaymentRequired, gwErr.StatusCode)
	assert.True(t, gwErr.IsCardError())
	assert.False(t, gwErr.IsRetryable())
}

func TestHTTPClient_UnstructuredErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream unavailable`))
	}))
	defer server.Close()

	client := gateway.NewHTTPClient(testConfig(server.URL), nil, nil, discardLogger())

	_, err := client.GetSetupIntent(context.Background(), "seti_1")

	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, gwErr.StatusCode)
	assert.True(t, gwErr.IsRetryable())
}

func TestHTTPClient_RunsMutatorsInRegistrationOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "second", r.PostForm.Get("metadata[source]"))
		assert.Equal(t, "engine", r.Header.Get("X-Client"))
		_, _ = w.Write([]byte(`{"id":"re_1","status":"succeeded"}`))
	}))
	defer server.Close()

	var order []string
	mutators := []gateway.RequestMutator{
		func(ctx context.Context, req *gateway.Request) {
			order = append(order, "first")
			req.Params.Set("metadata[source]", "first")
		},
		func(ctx context.Context, req *gateway.Request) {
			order = append(order, "second")
			req.Params.Set("metadata[source]", "second")
			req.Header.Set("X-Client", "engine")
		},
	}

	client := gateway.NewHTTPClient(testConfig(server.URL), nil, mutators, discardLogger())

	_, err := client.CreateRefund(context.Background(), gateway.RefundParams{PaymentIntent: "pi_1"}, "idem")

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}
