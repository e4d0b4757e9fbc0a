// Package gateway talks to the card-payment Gateway's form-encoded REST API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client interface {
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams, idempotencyKey string) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, id string, params ConfirmParams, idempotencyKey string) (*PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, id string, params CaptureParams, idempotencyKey string) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id string, params CancelParams, idempotencyKey string) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, params RefundParams, idempotencyKey string) (*Refund, error)
	CreateCustomer(ctx context.Context, params CustomerParams, idempotencyKey string) (*Customer, error)
	CreateSetupIntent(ctx context.Context, params SetupIntentParams, idempotencyKey string) (*SetupIntent, error)
	GetSetupIntent(ctx context.Context, id string) (*SetupIntent, error)
	CreateWebhookEndpoint(ctx context.Context, params WebhookEndpointParams) (*WebhookEndpoint, error)
}

// Request is an outgoing call as seen by request mutators.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header
}

// RequestMutator may rewrite an outgoing request before it is sent.
type RequestMutator func(ctx context.Context, req *Request)

type HTTPClient struct {
	cfg        Config
	httpClient *http.Client
	mutators   []RequestMutator
	logger     *slog.Logger
}

func NewHTTPClient(cfg Config, httpClient *http.Client, mutators []RequestMutator, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClient{
		cfg:        cfg,
		httpClient: httpClient,
		mutators:   mutators,
		logger:     logger,
	}
}

func (c *HTTPClient) CreatePaymentIntent(ctx context.Context, params PaymentIntentParams, idempotencyKey string) (*PaymentIntent, error) {
	return sendRequest[PaymentIntent](c, ctx, http.MethodPost, "/v1/payment_intents", params.Values(), idempotencyKey)
}

func (c *HTTPClient) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	return sendRequest[PaymentIntent](c, ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, "")
}

func (c *HTTPClient) ConfirmPaymentIntent(ctx context.Context, id string, params ConfirmParams, idempotencyKey string) (*PaymentIntent, error) {
	path := fmt.Sprintf("/v1/payment_intents/%s/confirm", url.PathEscape(id))
	return sendRequest[PaymentIntent](c, ctx, http.MethodPost, path, params.Values(), idempotencyKey)
}

func (c *HTTPClient) CapturePaymentIntent(ctx context.Context, id string, params CaptureParams, idempotencyKey string) (*PaymentIntent, error) {
	path := fmt.Sprintf("/v1/payment_intents/%s/capture", url.PathEscape(id))
	return sendRequest[PaymentIntent](c, ctx, http.MethodPost, path, params.Values(), idempotencyKey)
}

func (c *HTTPClient) CancelPaymentIntent(ctx context.Context, id string, params CancelParams, idempotencyKey string) (*PaymentIntent, error) {
	path := fmt.Sprintf("/v1/payment_intents/%s/cancel", url.PathEscape(id))
	return sendRequest[PaymentIntent](c, ctx, http.MethodPost, path, params.Values(), idempotencyKey)
}

func (c *HTTPClient) CreateRefund(ctx context.Context, params RefundParams, idempotencyKey string) (*Refund, error) {
	return sendRequest[Refund](c, ctx, http.MethodPost, "/v1/refunds", params.Values(), idempotencyKey)
}

func (c *HTTPClient) CreateCustomer(ctx context.Context, params CustomerParams, idempotencyKey string) (*Customer, error) {
	return sendRequest[Customer](c, ctx, http.MethodPost, "/v1/customers", params.Values(), idempotencyKey)
}

func (c *HTTPClient) CreateSetupIntent(ctx context.Context, params SetupIntentParams, idempotencyKey string) (*SetupIntent, error) {
	return sendRequest[SetupIntent](c, ctx, http.MethodPost, "/v1/setup_intents", params.Values(), idempotencyKey)
}

func (c *HTTPClient) GetSetupIntent(ctx context.Context, id string) (*SetupIntent, error) {
	return sendRequest[SetupIntent](c, ctx, http.MethodGet, "/v1/setup_intents/"+url.PathEscape(id), nil, "")
}

func (c *HTTPClient) CreateWebhookEndpoint(ctx context.Context, params WebhookEndpointParams) (*WebhookEndpoint, error) {
	return sendRequest[WebhookEndpoint](c, ctx, http.MethodPost, "/v1/webhook_endpoints", params.Values(), "")
}

func sendRequest[Resp any](c *HTTPClient, ctx context.Context, method, path string, params url.Values, idempotencyKey string) (*Resp, error) {
	req := &Request{
		Method: method,
		Path:   path,
		Params: params,
		Header: http.Header{},
	}
	if req.Params == nil {
		req.Params = url.Values{}
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if c.cfg.APIVersion != "" {
		req.Header.Set("Stripe-Version", c.cfg.APIVersion)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	for _, mutate := range c.mutators {
		mutate(ctx, req)
	}

	target := strings.TrimRight(c.cfg.BaseURL, "/") + req.Path
	var bodyReader io.Reader
	if req.Method == http.MethodGet {
		if encoded := req.Params.Encode(); encoded != "" {
			target += "?" + encoded
		}
	} else {
		bodyReader = strings.NewReader(req.Params.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header = req.Header
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("gateway request failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway request completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
			return nil, &Error{
				Type:       "api_error",
				Message:    fmt.Sprintf("gateway returned status %d: %s", resp.StatusCode, string(body)),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, &Error{
			Type:        envelope.Error.Type,
			Code:        envelope.Error.Code,
			DeclineCode: envelope.Error.DeclineCode,
			Param:       envelope.Error.Param,
			Message:     envelope.Error.Message,
			StatusCode:  resp.StatusCode,
		}
	}

	var gatewayResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&gatewayResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &gatewayResp, nil
}
