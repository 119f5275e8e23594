package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/CargoTrack/config"
	"github.com/BearBump/CargoTrack/internal/broker/kafka"
	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/fake"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/dispatch"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type memOutbox struct {
	mu        sync.Mutex
	rows      map[string]*models.Notification
	enqueued  []*models.Notification
	enqErr    error
	pingErr   error
	requeued  []string
	claimable []*models.Notification
}

func newMemOutbox() *memOutbox {
	return &memOutbox{rows: map[string]*models.Notification{}}
}

func (m *memOutbox) Enqueue(ctx context.Context, n *models.Notification, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqErr != nil {
		return false, m.enqErr
	}
	if _, ok := m.rows[n.ID]; ok {
		return false, nil
	}
	cp := *n
	cp.Status = models.NotificationStatusPending
	cp.NextSendAt = now
	cp.UpdatedAt = now
	m.rows[n.ID] = &cp
	m.enqueued = append(m.enqueued, &cp)
	return true, nil
}

func (m *memOutbox) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return n, nil
}

func (m *memOutbox) Requeue(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.Status != models.NotificationStatusFailed {
		return models.ErrNotFound
	}
	n.Status = models.NotificationStatusPending
	n.Attempts = 0
	n.NextSendAt = now
	m.requeued = append(m.requeued, id)
	return nil
}

func (m *memOutbox) CountByStatus(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{
		models.NotificationStatusPending: 0,
		models.NotificationStatusSent:    0,
		models.NotificationStatusFailed:  0,
	}
	for _, n := range m.rows {
		out[n.Status]++
	}
	return out, nil
}

func (m *memOutbox) Ping(ctx context.Context) error { return m.pingErr }

func (m *memOutbox) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.claimable
	m.claimable = nil
	return out, nil
}

func (m *memOutbox) MarkSent(ctx context.Context, id, providerID string, sentAt time.Time) error {
	return nil
}

func (m *memOutbox) MarkRetry(ctx context.Context, id, lastError string, nextAt, now time.Time) error {
	return nil
}

func (m *memOutbox) MarkFailed(ctx context.Context, id, lastError string, now time.Time) error {
	return nil
}

type idleConsumer struct {
	closed bool
}

func (c *idleConsumer) Consume(ctx context.Context, handler kafka.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *idleConsumer) Close() error {
	c.closed = true
	return nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func notificationMessage(t *testing.T, n messages.Notification) kafka.Message {
	t.Helper()
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return kafka.Message{Value: b, Offset: 7}
}

func TestIngestHandler_EnqueuesNotification(t *testing.T) {
	repo := newMemOutbox()
	h := ingestHandler(repo, nil, logger.NewNop(), clock)

	n := messages.NewNotification(messages.TemplateTrackingCreated, "anna@example.com",
		"Your shipment ECSL1 has been created", map[string]any{"trackingNumber": "ECSL1"}, fixedNow.Add(-time.Minute))

	require.NoError(t, h(context.Background(), notificationMessage(t, n)))
	require.Len(t, repo.enqueued, 1)

	got := repo.enqueued[0]
	require.Equal(t, n.ID, got.ID)
	require.Equal(t, messages.TemplateTrackingCreated, got.Template)
	require.Equal(t, "anna@example.com", got.Recipient)
	require.Equal(t, "Your shipment ECSL1 has been created", got.Subject)
	require.JSONEq(t, `{"trackingNumber":"ECSL1"}`, string(got.DataJSON))
	require.True(t, got.CreatedAt.Equal(n.CreatedAt))
	require.Equal(t, fixedNow, got.NextSendAt)
}

func TestIngestHandler_DuplicateIsAcknowledged(t *testing.T) {
	repo := newMemOutbox()
	h := ingestHandler(repo, nil, logger.NewNop(), clock)

	msg := notificationMessage(t, messages.NewNotification(messages.TemplateContactAdmin, "ops@example.com", "s", nil, fixedNow))
	require.NoError(t, h(context.Background(), msg))
	require.NoError(t, h(context.Background(), msg))
	require.Len(t, repo.enqueued, 1)
	require.Empty(t, repo.enqueued[0].DataJSON)
}

func TestIngestHandler_SkipsBadMessages(t *testing.T) {
	repo := newMemOutbox()
	h := ingestHandler(repo, nil, logger.NewNop(), clock)

	err := h(context.Background(), kafka.Message{Value: []byte("{not json")})
	require.ErrorIs(t, err, kafka.ErrSkip)

	bad := messages.NewNotification("birthday", "a@example.com", "s", nil, fixedNow)
	err = h(context.Background(), notificationMessage(t, bad))
	require.ErrorIs(t, err, kafka.ErrSkip)

	noID := messages.NewNotification(messages.TemplateShipmentStatus, "a@example.com", "s", nil, fixedNow)
	noID.ID = ""
	err = h(context.Background(), notificationMessage(t, noID))
	require.ErrorIs(t, err, kafka.ErrSkip)

	require.Empty(t, repo.enqueued)
}

func TestIngestHandler_StoreErrorIsNotSkipped(t *testing.T) {
	repo := newMemOutbox()
	repo.enqErr = errors.New("connection refused")
	h := ingestHandler(repo, nil, logger.NewNop(), clock)

	msg := notificationMessage(t, messages.NewNotification(messages.TemplateShipmentAdmin, "ops@example.com", "s", nil, fixedNow))
	err := h(context.Background(), msg)
	require.Error(t, err)
	require.NotErrorIs(t, err, kafka.ErrSkip)
}

func TestIngestHandler_TriggersDispatcher(t *testing.T) {
	repo := newMemOutbox()
	d := dispatch.New(repo, nil, fake.New(), "fake", nil, logger.NewNop(), metrics.Nop())
	h := ingestHandler(repo, d, logger.NewNop(), clock)

	msg := notificationMessage(t, messages.NewNotification(messages.TemplateContactConfirmation, "a@example.com", "s", nil, fixedNow))
	require.NoError(t, h(context.Background(), msg))
	require.NotNil(t, d.Stats().LastTriggerAt)
}

func TestDefaultWorkerFactories_NonNil(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	}

	c := f.newConsumer(cfg)
	require.NotNil(t, c)
	require.NoError(t, c.Close())

	rl, closeRL := f.newRateLimiter(cfg)
	require.NotNil(t, rl)
	closeRL()

	sender, name, err := f.newSender(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, sender)
	require.Equal(t, "fake", name)
}

func TestRunNotifyWorker_ContextCanceled(t *testing.T) {
	swagger := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(swagger, []byte(`{}`), 0o600))

	calledClose := false
	cons := &idleConsumer{}
	f := workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (outbox, func(), error) {
			return newMemOutbox(), func() { calledClose = true }, nil
		},
		newConsumer: func(cfg *config.Config) consumer { return cons },
		newRateLimiter: func(cfg *config.Config) (dispatch.RateLimiter, func()) {
			return nil, nil
		},
		newSender: func(ctx context.Context, cfg *config.Config) (mailer.Sender, string, error) {
			return fake.New(), "fake", nil
		},
	}

	deps := workerDeps{
		cfg:     &config.Config{CargoTrack: config.CargoTrackConfig{WorkerPollIntervalSeconds: 1}},
		log:     logger.NewNop(),
		metrics: metrics.Nop(),
		http:    workerHTTPOpts{httpAddr: "127.0.0.1:0", swaggerPath: swagger},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunNotifyWorker(ctx, deps, f)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, calledClose)
	require.True(t, cons.closed)
}

func TestRunNotifyWorker_StorageError(t *testing.T) {
	f := defaultWorkerFactories()
	f.newStorage = func(ctx context.Context, cfg *config.Config) (outbox, func(), error) {
		return nil, nil, errors.New("no postgres")
	}

	err := RunNotifyWorker(context.Background(), workerDeps{
		cfg: &config.Config{}, log: logger.NewNop(), metrics: metrics.Nop(),
	}, f)
	require.ErrorContains(t, err, "open outbox")
}
