package reauthorize_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/amount"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/executor"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/application/method"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/domain"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/gateway/mocks"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/jobs"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/notify"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/worker/reauthorize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type staticClients struct {
	client gateway.Client
}

func (s staticClients) Client(gateway.Config) gateway.Client {
	return s.client
}

type recordingNotifier struct {
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notify.Notification) error {
	n.sent = append(n.sent, msg)
	return nil
}

// flakyRepo fails FindByID for one id.
type flakyRepo struct {
	*memory.TransactionRepository
	brokenID int64
}

func (r *flakyRepo) FindByID(ctx context.Context, id int64) (*domain.PaymentTransaction, error) {
	if id == r.brokenID {
		return nil, errors.New("connection reset by peer")
	}
	return r.TransactionRepository.FindByID(ctx, id)
}

type ReauthorizeSuite struct {
	suite.Suite
	client   *mocks.MockClient
	repo     *flakyRepo
	queue    *memory.JobQueue
	notifier *recordingNotifier
	registry *method.Registry
	init     *reauthorize.InitHandler
	chunk    *reauthorize.ChunkHandler
	cfg      reauthorize.Config
}

func TestReauthorizeSuite(t *testing.T) {
	suite.Run(t, new(ReauthorizeSuite))
}

func (s *ReauthorizeSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.client = mocks.NewMockClient(s.T())
	s.repo = &flakyRepo{TransactionRepository: memory.NewTransactionRepository()}
	s.queue = memory.NewJobQueue()
	s.notifier = &recordingNotifier{}
	s.cfg = reauthorize.Config{ChunkSize: 10, ExpirationWindow: 164 * time.Hour, CancelReason: "abandoned"}

	converter := amount.NewDefault(nil, nil)
	composite := executor.NewDefaultComposite(staticClients{client: s.client}, s.repo, converter, logger)

	cfg := domain.PaymentMethodConfig{
		Identifier:             "gateway_card",
		Enabled:                true,
		Integration:            domain.IntegrationCard,
		SecretKey:              "sk_test",
		PaymentAction:          domain.PaymentActionManual,
		ReauthorizationAllowed: true,
		ReauthorizationEmail:   "ops@example.test",
	}
	disabled := cfg
	disabled.Identifier = "gateway_no_reauth"
	disabled.ReauthorizationAllowed = false

	s.registry = method.NewRegistry(
		method.NewGatewayMethod(cfg, gateway.Config{}, composite, s.repo, converter, logger),
		method.NewGatewayMethod(disabled, gateway.Config{}, composite, s.repo, converter, logger),
	)

	s.init = reauthorize.NewInitHandler(s.registry, s.repo, s.queue, s.cfg, logger)
	s.chunk = reauthorize.NewChunkHandler(s.registry, s.repo, s.notifier, s.cfg, logger)
}

func (s *ReauthorizeSuite) authorization(paymentMethod string, age time.Duration) *domain.PaymentTransaction {
	tx := domain.NewTransaction(domain.ActionAuthorize, paymentMethod, decimal.RequireFromString("49.99"), "USD")
	tx.EntityIdentifier = "order-7"
	tx.Active = true
	tx.Successful = true
	tx.Reference = "pi_old"
	tx.CreatedAt = time.Now().Add(-age)
	tx.Options.PaymentIntentID = "pi_old"
	tx.Options.PaymentMethodID = "pm_saved"
	tx.Options.CustomerID = "cus_1"
	tx.Options.ReauthorizationEnabled = true
	s.Require().NoError(s.repo.Save(context.Background(), tx))
	return tx
}

func (s *ReauthorizeSuite) chunkJob(ids ...int64) *jobs.Job {
	job, err := jobs.New("reauthorize:chunk:test:0", reauthorize.TopicChunk, reauthorize.ChunkPayload{TransactionIDs: ids})
	s.Require().NoError(err)
	return job
}

func (s *ReauthorizeSuite) TestInitSplitsIntoChunks() {
	for range 23 {
		s.authorization("gateway_card", 170*time.Hour)
	}
	s.authorization("gateway_card", time.Hour)
	s.authorization("gateway_no_reauth", 170*time.Hour)

	initJob, err := jobs.New("reauthorize:init:2026-10-15T00:00:00Z", reauthorize.TopicInit, reauthorize.InitPayload{})
	s.Require().NoError(err)

	s.Require().NoError(s.init.Handle(context.Background(), initJob))

	queued := s.queue.Jobs()
	s.Require().Len(queued, 3)

	sizes := make([]int, 0, len(queued))
	for i, job := range queued {
		s.Equal(reauthorize.ChunkJobName(initJob.Name, i), job.Name)
		s.Equal(reauthorize.TopicChunk, job.Topic)

		var payload reauthorize.ChunkPayload
		s.Require().NoError(job.Decode(&payload))
		sizes = append(sizes, len(payload.TransactionIDs))
	}
	s.Equal([]int{10, 10, 3}, sizes)
	s.Equal("reauthorize:chunk:reauthorize:init:2026-10-15T00:00:00Z:0", queued[0].Name)

	// a second run of the same init job changes nothing
	s.Require().NoError(s.init.Handle(context.Background(), initJob))
	s.Len(s.queue.Jobs(), 3)
}

func (s *ReauthorizeSuite) TestChunkRenewsAuthorization() {
	ctx := context.Background()
	old := s.authorization("gateway_card", 170*time.Hour)

	s.client.On("CancelPaymentIntent", mock.Anything, "pi_old", gateway.CancelParams{CancellationReason: "abandoned"}, mock.Anything).
		Return(&gateway.PaymentIntent{ID: "pi_old", Status: gateway.StatusCanceled}, nil).
		Once()
	s.client.On("CreatePaymentIntent", mock.Anything, mock.MatchedBy(func(p gateway.PaymentIntentParams) bool {
		return p.OffSession && p.Customer == "cus_1" && p.PaymentMethod == "pm_saved" && p.Amount == 4999
	}), mock.Anything).
		Return(&gateway.PaymentIntent{ID: "pi_new", Status: gateway.StatusRequiresCapture}, nil).
		Once()

	s.Require().NoError(s.chunk.Handle(ctx, s.chunkJob(old.ID)))

	stored, err := s.repo.FindByID(ctx, old.ID)
	s.Require().NoError(err)
	s.False(stored.Active)
	s.True(stored.Successful)

	children, err := s.repo.FindChildren(ctx, old.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)

	cancel, renewed := children[0], children[1]
	s.Equal(domain.ActionCancel, cancel.Action)
	s.True(cancel.Successful)
	s.Equal("abandoned", cancel.Options.CancelReason)

	s.Equal(domain.ActionAuthorize, renewed.Action)
	s.True(renewed.Active)
	s.True(renewed.Successful)
	s.Equal("pi_new", renewed.Options.PaymentIntentID)
	s.Equal("order-7", renewed.EntityIdentifier)
	s.True(renewed.Options.ReauthorizationEnabled)
	s.Empty(s.notifier.sent)
}

func (s *ReauthorizeSuite) TestCancelFailureStopsAndNotifies() {
	ctx := context.Background()
	old := s.authorization("gateway_card", 170*time.Hour)

	s.client.On("CancelPaymentIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &gateway.Error{Type: "invalid_request_error", Code: "payment_intent_unexpected_state", Message: "already captured", StatusCode: http.StatusBadRequest}).
		Once()

	s.Require().NoError(s.chunk.Handle(ctx, s.chunkJob(old.ID)))

	stored, err := s.repo.FindByID(ctx, old.ID)
	s.Require().NoError(err)
	s.True(stored.Active, "the old hold stays active when the cancel fails")

	s.Require().Len(s.notifier.sent, 1)
	s.Equal("cancel", s.notifier.sent[0].Step)
	s.Equal("already captured", s.notifier.sent[0].Reason)
	s.Equal("ops@example.test", s.notifier.sent[0].Recipient)
}

func (s *ReauthorizeSuite) TestAuthorizeFailureNotifiesWithGatewayMessage() {
	ctx := context.Background()
	old := s.authorization("gateway_card", 170*time.Hour)

	s.client.On("CancelPaymentIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.PaymentIntent{ID: "pi_old", Status: gateway.StatusCanceled}, nil).
		Once()
	s.client.On("CreatePaymentIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &gateway.Error{Type: "card_error", Code: "card_declined", Message: "Your card was declined.", StatusCode: http.StatusPaymentRequired}).
		Once()

	s.Require().NoError(s.chunk.Handle(ctx, s.chunkJob(old.ID)))

	children, err := s.repo.FindChildren(ctx, old.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.False(children[1].Active)
	s.False(children[1].Successful)

	s.Require().Len(s.notifier.sent, 1)
	s.Equal("authorize", s.notifier.sent[0].Step)
	s.Equal("Your card was declined.", s.notifier.sent[0].Reason)
}

func (s *ReauthorizeSuite) TestFailuresAreIsolatedPerTransaction() {
	ctx := context.Background()
	broken := s.authorization("gateway_card", 170*time.Hour)
	healthy := s.authorization("gateway_card", 170*time.Hour)
	s.repo.brokenID = broken.ID

	s.client.On("CancelPaymentIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.PaymentIntent{ID: "pi_old", Status: gateway.StatusCanceled}, nil).
		Once()
	s.client.On("CreatePaymentIntent", mock.Anything, mock.Anything, mock.Anything).
		Return(&gateway.PaymentIntent{ID: "pi_new", Status: gateway.StatusRequiresCapture}, nil).
		Once()

	s.Require().NoError(s.chunk.Handle(ctx, s.chunkJob(broken.ID, healthy.ID)))

	s.Require().Len(s.notifier.sent, 1)
	s.Equal(broken.ID, s.notifier.sent[0].TransactionID)
	s.Contains(s.notifier.sent[0].Reason, "connection reset")

	children, err := s.repo.FindChildren(ctx, healthy.ID)
	s.Require().NoError(err)
	s.Len(children, 2)
}

func (s *ReauthorizeSuite) TestIneligibleTransactionsAreSkipped() {
	ctx := context.Background()
	optedOut := s.authorization("gateway_card", 170*time.Hour)
	optedOut.Options.ReauthorizationEnabled = false
	s.Require().NoError(s.repo.Save(ctx, optedOut))

	alreadyCancelled := s.authorization("gateway_card", 170*time.Hour)
	cancel := alreadyCancelled.NewChild(domain.ActionCancel)
	cancel.Successful = true
	s.Require().NoError(s.repo.Save(ctx, cancel))

	methodOff := s.authorization("gateway_no_reauth", 170*time.Hour)

	s.Require().NoError(s.chunk.Handle(ctx, s.chunkJob(optedOut.ID, alreadyCancelled.ID, methodOff.ID)))
	s.Empty(s.notifier.sent)
}

func (s *ReauthorizeSuite) TestInvalidPayload() {
	job := &jobs.Job{Name: "reauthorize:chunk:x:0", Topic: reauthorize.TopicChunk, Payload: []byte("{")}
	s.Error(s.chunk.Handle(context.Background(), job))
}

func (s *ReauthorizeSuite) TestSchedulerNamesJobsPerInterval() {
	scheduler := reauthorize.NewScheduler(s.queue, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	at := time.Date(2026, 10, 15, 9, 12, 0, 0, time.UTC)

	created, err := scheduler.Trigger(context.Background(), at)
	s.Require().NoError(err)
	s.True(created)

	created, err = scheduler.Trigger(context.Background(), at.Add(30*time.Minute))
	s.Require().NoError(err)
	s.False(created)

	queued := s.queue.Jobs()
	s.Require().Len(queued, 1)
	s.Equal(reauthorize.InitJobName(at.Truncate(time.Hour)), queued[0].Name)
	s.Equal(fmt.Sprintf("reauthorize:init:%s", "2026-10-15T09:00:00Z"), queued[0].Name)
}
