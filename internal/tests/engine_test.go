package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/webhook"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/notify"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/worker/reauthorize"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	methodID      = "gateway_card"
	webhookSecret = "whsec_test"
)

// fakeGateway keeps payment intents in memory and answers the subset of the
// Gateway API the engine calls.
type fakeGateway struct {
	mu         sync.Mutex
	next       int
	intents    map[string]*gateway.PaymentIntent
	offSession int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*gateway.PaymentIntent{}}
}

func (g *fakeGateway) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/payment_intents", g.create)
	r.Get("/v1/payment_intents/{id}", g.get)
	r.Post("/v1/payment_intents/{id}/confirm", g.transition(gateway.StatusRequiresCapture))
	r.Post("/v1/payment_intents/{id}/capture", g.transition(gateway.StatusSucceeded))
	r.Post("/v1/payment_intents/{id}/cancel", g.transition(gateway.StatusCanceled))
	return r
}

func (g *fakeGateway) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	amount, _ := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
	pi := &gateway.PaymentIntent{
		ID:            fmt.Sprintf("pi_%d", g.next),
		Object:        "payment_intent",
		Amount:        amount,
		Currency:      r.PostForm.Get("currency"),
		CaptureMethod: r.PostForm.Get("capture_method"),
		Customer:      r.PostForm.Get("customer"),
		PaymentMethod: r.PostForm.Get("payment_method"),
		ClientSecret:  fmt.Sprintf("pi_%d_secret", g.next),
		Metadata:      map[string]string{},
		Status:        gateway.StatusRequiresAction,
	}
	for key, values := range r.PostForm {
		if name, ok := strings.CutPrefix(key, "metadata["); ok {
			pi.Metadata[strings.TrimSuffix(name, "]")] = values[0]
		}
	}
	if r.PostForm.Get("off_session") == "true" {
		g.offSession++
		pi.Status = gateway.StatusRequiresCapture
	}
	g.intents[pi.ID] = pi

	writeJSON(w, pi)
}

func (g *fakeGateway) get(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pi, ok := g.intents[chi.URLParam(r, "id")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"error": map[string]string{"type": "invalid_request_error", "message": "no such payment_intent"}})
		return
	}
	writeJSON(w, pi)
}

func (g *fakeGateway) transition(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		pi, ok := g.intents[chi.URLParam(r, "id")]
		if ok {
			pi.Status = status
		}
		g.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"error": map[string]string{"type": "invalid_request_error", "message": "no such payment_intent"}})
			return
		}
		g.get(w, r)
	}
}

// completeAction simulates the customer finishing 3-D Secure.
func (g *fakeGateway) completeAction(id string) *gateway.PaymentIntent {
	g.mu.Lock()
	defer g.mu.Unlock()
	pi := g.intents[id]
	pi.Status = gateway.StatusRequiresCapture
	copied := *pi
	return &copied
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type recordingNotifier struct {
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notify.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

type EngineTestSuite struct {
	suite.Suite
	fake     *fakeGateway
	gwServer *httptest.Server
	repo     *memory.TransactionRepository
	queue    *memory.JobQueue
	methods  *method.Registry
	router   http.Handler
	runner   *jobs.Runner
	notifier *recordingNotifier
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	suite.fake = newFakeGateway()
	suite.gwServer = httptest.NewServer(suite.fake.routes())
	suite.repo = memory.NewTransactionRepository()
	suite.queue = memory.NewJobQueue()
	suite.notifier = &recordingNotifier{}

	converter := amount.NewDefault(nil, nil)
	actions := executor.NewDefaultComposite(gateway.NewFactory(logger), suite.repo, converter, logger)

	suite.methods = method.NewGatewayRegistry([]domain.PaymentMethodConfig{{
		Identifier:             methodID,
		Enabled:                true,
		Integration:            domain.IntegrationCard,
		SecretKey:              "sk_test",
		WebhookSecret:          webhookSecret,
		PaymentAction:          domain.PaymentActionManual,
		ReauthorizationAllowed: true,
		ReauthorizationEmail:   "ops@example.com",
	}}, method.ClientSettings{
		BaseURL:        suite.gwServer.URL,
		Timeout:        5 * time.Second,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	}, actions, suite.repo, converter, logger)

	service := webhook.NewService(
		webhook.NewEventFactory(suite.methods, gateway.DefaultTolerance, logger),
		webhook.NewDispatcher(suite.repo, logger),
		nil,
		logger,
	)

	doc, err := docs.Load(context.Background())
	suite.Require().NoError(err)
	suite.router = handlers.NewRouter(handlers.NewHandlers(service, doc, logger), 5*time.Second, logger)

	cfg := reauthorize.Config{ChunkSize: 10, ExpirationWindow: 164 * time.Hour, CancelReason: "abandoned"}
	suite.runner = jobs.NewRunner(suite.queue, jobs.RunnerConfig{BatchSize: 10, MaxAttempts: 1}, logger)
	suite.runner.Register(reauthorize.TopicInit, reauthorize.NewInitHandler(suite.methods, suite.repo, suite.queue, cfg, logger))
	suite.runner.Register(reauthorize.TopicChunk, reauthorize.NewChunkHandler(suite.methods, suite.repo, suite.notifier, cfg, logger))
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.gwServer.Close()
}

func (suite *EngineTestSuite) deliver(eventID, eventType string, object any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(object)
	suite.Require().NoError(err)

	payload, err := json.Marshal(gateway.Event{
		ID:      eventID,
		Object:  "event",
		Type:    eventType,
		Created: time.Now().Unix(),
		Data:    gateway.EventData{Object: raw},
	})
	suite.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewReader(payload))
	req.Header.Set(gateway.SignatureHeader, gateway.SignHeader(time.Now(), payload, webhookSecret))
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	return rec
}

// authorize runs a checkout that needs 3-D Secure and completes it through
// the webhook.
func (suite *EngineTestSuite) authorize(ctx context.Context) *domain.PaymentTransaction {
	t := suite.T()

	m, err := suite.methods.Get(methodID)
	require.NoError(t, err)

	tx := domain.NewTransaction(domain.ActionPurchase, methodID, decimal.RequireFromString("25.00"), "EUR")
	tx.EntityClass = "order"
	tx.EntityIdentifier = "order-7"
	tx.Options.PaymentMethodID = "pm_card_visa"
	tx.Options.CustomerID = "cus_1"
	tx.Options.ReauthorizationEnabled = true

	result, err := m.Execute(ctx, executor.ActionPurchase, tx)
	require.NoError(t, err)
	assert.False(t, result.Successful)
	assert.True(t, tx.Response.RequiresAction)
	assert.NotEmpty(t, tx.Response.ClientSecret)

	pi := suite.fake.completeAction(tx.Options.PaymentIntentID)
	rec := suite.deliver("evt_capturable_"+pi.ID, gateway.EventPaymentIntentAmountCapturableUpdate, pi)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.String())

	stored, err := suite.repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	return stored
}

func (suite *EngineTestSuite) Test_CheckoutCompletedByWebhook() {
	ctx := context.Background()
	t := suite.T()

	tx := suite.authorize(ctx)

	assert.True(t, tx.Successful)
	assert.True(t, tx.Active)
	assert.Equal(t, domain.ActionAuthorize, tx.Action)
	assert.Equal(t, tx.Options.PaymentIntentID, tx.Reference)
	assert.Equal(t, gateway.StatusRequiresCapture, tx.Response.Status)

	pi := suite.fake.completeAction(tx.Options.PaymentIntentID)
	rec := suite.deliver("evt_again", gateway.EventPaymentIntentAmountCapturableUpdate, pi)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func (suite *EngineTestSuite) Test_WebhookWithWrongSecretIsAcknowledged() {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateway", bytes.NewReader(payload))
	req.Header.Set(gateway.SignatureHeader, gateway.SignHeader(time.Now(), payload, "whsec_other"))
	rec := httptest.NewRecorder()

	suite.router.ServeHTTP(rec, req)

	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), domain.ErrCodeNotSupportedEvent)
}

func (suite *EngineTestSuite) Test_ReauthorizationRenewsExpiringHold() {
	ctx := context.Background()
	t := suite.T()

	tx := suite.authorize(ctx)
	tx.CreatedAt = time.Now().UTC().Add(-8 * 24 * time.Hour)
	require.NoError(t, suite.repo.Save(ctx, tx))

	created, err := reauthorize.NewScheduler(suite.queue, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil))).
		Trigger(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, created)

	for i := 0; i < 5; i++ {
		n, err := suite.runner.RunOnce(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	old, err := suite.repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	children, err := suite.repo.FindChildren(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)

	cancel, renewed := children[0], children[1]
	assert.Equal(t, domain.ActionCancel, cancel.Action)
	assert.True(t, cancel.Successful)
	assert.Equal(t, domain.ActionAuthorize, renewed.Action)
	assert.True(t, renewed.Successful)
	assert.True(t, renewed.Active)
	assert.NotEqual(t, tx.Reference, renewed.Reference)
	assert.Equal(t, 1, suite.fake.offSession)
	assert.Empty(t, suite.notifier.sent)

	for _, job := range suite.queue.Jobs() {
		assert.Equal(t, jobs.StatusDone, job.Status, job.Name)
	}
}

func (suite *EngineTestSuite) Test_RefundIssuedOnGatewayDashboard() {
	ctx := context.Background()
	t := suite.T()

	auth := suite.authorize(ctx)
	m, err := suite.methods.Get(methodID)
	require.NoError(t, err)

	capture := auth.NewChild(domain.ActionCapture)
	result, err := m.Execute(ctx, executor.ActionCapture, capture)
	require.NoError(t, err)
	require.True(t, result.Successful)

	rec := suite.deliver("evt_refund", gateway.EventChargeRefundUpdated, gateway.Refund{
		ID:            "re_1",
		Object:        "refund",
		Amount:        1000,
		Currency:      "eur",
		PaymentIntent: capture.Reference,
		Status:        gateway.RefundStatusSucceeded,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	children, err := suite.repo.FindChildren(ctx, capture.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, domain.ActionRefund, children[0].Action)
	assert.Equal(t, "re_1", children[0].Reference)
	assert.True(t, children[0].Amount.Equal(decimal.RequireFromString("10")))
	assert.True(t, children[0].Successful)
}
