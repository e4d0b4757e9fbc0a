// Package mocks provides a testify mock of the Gateway client.
package mocks

import (
	"context"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the gateway.Client type
type MockClient struct {
	mock.Mock
}

// NewMockClient creates a mock and asserts its expectations on cleanup.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockClient) CreatePaymentIntent(ctx context.Context, params gateway.PaymentIntentParams, idempotencyKey string) (*gateway.PaymentIntent, error) {
	ret := m.Called(ctx, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.PaymentIntent)
	return v, ret.Error(1)
}

func (m *MockClient) GetPaymentIntent(ctx context.Context, id string) (*gateway.PaymentIntent, error) {
	ret := m.Called(ctx, id)
	v, _ := ret.Get(0).(*gateway.PaymentIntent)
	return v, ret.Error(1)
}

func (m *MockClient) ConfirmPaymentIntent(ctx context.Context, id string, params gateway.ConfirmParams, idempotencyKey string) (*gateway.PaymentIntent, error) {
	ret := m.Called(ctx, id, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.PaymentIntent)
	return v, ret.Error(1)
}

func (m *MockClient) CapturePaymentIntent(ctx context.Context, id string, params gateway.CaptureParams, idempotencyKey string) (*gateway.PaymentIntent, error) {
	ret := m.Called(ctx, id, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.PaymentIntent)
	return v, ret.Error(1)
}

func (m *MockClient) CancelPaymentIntent(ctx context.Context, id string, params gateway.CancelParams, idempotencyKey string) (*gateway.PaymentIntent, error) {
	ret := m.Called(ctx, id, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.PaymentIntent)
	return v, ret.Error(1)
}

func (m *MockClient) CreateRefund(ctx context.Context, params gateway.RefundParams, idempotencyKey string) (*gateway.Refund, error) {
	ret := m.Called(ctx, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.Refund)
	return v, ret.Error(1)
}

func (m *MockClient) CreateCustomer(ctx context.Context, params gateway.CustomerParams, idempotencyKey string) (*gateway.Customer, error) {
	ret := m.Called(ctx, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.Customer)
	return v, ret.Error(1)
}

func (m *MockClient) CreateSetupIntent(ctx context.Context, params gateway.SetupIntentParams, idempotencyKey string) (*gateway.SetupIntent, error) {
	ret := m.Called(ctx, params, idempotencyKey)
	v, _ := ret.Get(0).(*gateway.SetupIntent)
	return v, ret.Error(1)
}

func (m *MockClient) GetSetupIntent(ctx context.Context, id string) (*gateway.SetupIntent, error) {
	ret := m.Called(ctx, id)
	v, _ := ret.Get(0).(*gateway.SetupIntent)
	return v, ret.Error(1)
}

func (m *MockClient) CreateWebhookEndpoint(ctx context.Context, params gateway.WebhookEndpointParams) (*gateway.WebhookEndpoint, error) {
	ret := m.Called(ctx, params)
	v, _ := ret.Get(0).(*gateway.WebhookEndpoint)
	return v, ret.Error(1)
}

var _ gateway.Client = (*MockClient)(nil)
