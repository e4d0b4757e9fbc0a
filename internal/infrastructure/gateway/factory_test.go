package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CachesClientPerConfiguration(t *testing.T) {
	factory := gateway.NewFactory(discardLogger())

	cfg := testConfig("https://gateway.test")
	first := factory.Client(cfg)
	second := factory.Client(cfg)

	assert.Same(t, first, second)

	other := cfg
	other.SecretKey = "sk_test_other"
	assert.NotSame(t, first, factory.Client(other))
}

func TestFactory_ResetDropsCachedClients(t *testing.T) {
	factory := gateway.NewFactory(discardLogger())

	cfg := testConfig("https://gateway.test")
	before := factory.Client(cfg)

	factory.Reset()

	assert.NotSame(t, before, factory.Client(cfg))
}

func TestFactory_ConfigHashIsStable(t *testing.T) {
	cfg := testConfig("https://gateway.test")
	same := testConfig("https://gateway.test")

	assert.Equal(t, cfg.Hash(), same.Hash())

	same.APIVersion = "2025-01-01"
	assert.NotEqual(t, cfg.Hash(), same.Hash())
}

func TestFactory_AppliesRequestMutators(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Trace"))
		_, _ = w.Write([]byte(`{"id":"cus_1"}`))
	}))
	defer server.Close()

	factory := gateway.NewFactory(discardLogger(),
		gateway.WithHTTPClient(server.Client()),
		gateway.WithRequestMutators(func(ctx context.Context, req *gateway.Request) {
			req.Header.Set("X-Trace", "registered")
		}),
	)
	factory.Use(func(ctx context.Context, req *gateway.Request) {
		req.Header.Set("X-Trace", req.Header.Get("X-Trace")+"+used")
	})

	client := factory.Client(testConfig(server.URL))
	_, err := client.CreateCustomer(context.Background(), gateway.CustomerParams{Email: "a@b.test"}, "idem")

	require.NoError(t, err)
	assert.Equal(t, []string{"registered+used"}, seen)
}
