package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/cache/rediscache"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/pkg/errors"
)

type Repository interface {
	ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Notification, error)
	MarkSent(ctx context.Context, id, providerID string, sentAt time.Time) error
	MarkRetry(ctx context.Context, id, lastError string, nextAt, now time.Time) error
	MarkFailed(ctx context.Context, id, lastError string, now time.Time) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (rediscache.Decision, error)
}

type Renderer interface {
	Message(n messages.Notification) (mailer.Message, error)
}

// Dispatcher periodically claims due notifications from the outbox and
// sends them through the configured provider.
type Dispatcher struct {
	repo     Repository
	renderer Renderer
	sender   mailer.Sender
	provider string
	rl       RateLimiter
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	planner *Planner

	pollInterval       time.Duration
	batchSize          int
	concurrency        int
	lease              time.Duration
	rateLimitPerMinute int64

	triggerCh chan struct{}

	startedAt           time.Time
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalClaimed        atomic.Int64
	totalSent           atomic.Int64
	totalRetried        atomic.Int64
	totalFailed         atomic.Int64
	totalRateLimited    atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, renderer Renderer, sender mailer.Sender, provider string, rl RateLimiter, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		repo: repo, renderer: renderer, sender: sender, provider: provider, rl: rl,
		log:                log,
		metrics:            m,
		now:                func() time.Time { return time.Now().UTC() },
		planner:            NewPlanner(DefaultPlannerConfig()),
		pollInterval:       2 * time.Second,
		batchSize:          50,
		concurrency:        5,
		lease:              2 * time.Minute,
		rateLimitPerMinute: 60,
		triggerCh:          make(chan struct{}, 1),
		startedAt:          time.Now().UTC(),
	}
}

func (d *Dispatcher) WithSettings(pollInterval time.Duration, batchSize, concurrency int, lease time.Duration, rlPerMin int64) *Dispatcher {
	if pollInterval > 0 {
		d.pollInterval = pollInterval
	}
	if batchSize > 0 {
		d.batchSize = batchSize
	}
	if concurrency > 0 {
		d.concurrency = concurrency
	}
	if lease > 0 {
		d.lease = lease
	}
	if rlPerMin > 0 {
		d.rateLimitPerMinute = rlPerMin
	}
	return d
}

func (d *Dispatcher) WithPlanner(cfg PlannerConfig) *Dispatcher {
	d.planner = NewPlanner(cfg)
	return d
}

// Trigger forces an immediate dispatch cycle (best-effort, non-blocking).
func (d *Dispatcher) Trigger() {
	d.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case d.triggerCh <- struct{}{}:
	default:
	}
}

type Settings struct {
	Provider           string   `json:"provider"`
	PollInterval       string   `json:"pollInterval"`
	BatchSize          int      `json:"batchSize"`
	Concurrency        int      `json:"concurrency"`
	Lease              string   `json:"lease"`
	RateLimitPerMinute int64    `json:"rateLimitPerMinute"`
	MaxAttempts        int32    `json:"maxAttempts"`
	Backoff            []string `json:"backoff"`
}

func (d *Dispatcher) Settings() Settings {
	cfg := d.planner.Config()
	s := Settings{
		Provider:           d.provider,
		PollInterval:       d.pollInterval.String(),
		BatchSize:          d.batchSize,
		Concurrency:        d.concurrency,
		Lease:              d.lease.String(),
		RateLimitPerMinute: d.rateLimitPerMinute,
		MaxAttempts:        cfg.MaxAttempts,
	}
	for _, b := range []time.Duration{cfg.Backoff1, cfg.Backoff2, cfg.Backoff3, cfg.Backoff4} {
		s.Backoff = append(s.Backoff, b.String())
	}
	return s
}

type Stats struct {
	StartedAt        time.Time  `json:"startedAt"`
	LastCycleAt      *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt    *time.Time `json:"lastTriggerAt,omitempty"`
	TotalClaimed     int64      `json:"totalClaimed"`
	TotalSent        int64      `json:"totalSent"`
	TotalRetried     int64      `json:"totalRetried"`
	TotalFailed      int64      `json:"totalFailed"`
	TotalRateLimited int64      `json:"totalRateLimited"`
	InFlight         int64      `json:"inFlight"`
	LastError        string     `json:"lastError,omitempty"`
}

func (d *Dispatcher) Stats() Stats {
	st := Stats{
		StartedAt:        d.startedAt,
		TotalClaimed:     d.totalClaimed.Load(),
		TotalSent:        d.totalSent.Load(),
		TotalRetried:     d.totalRetried.Load(),
		TotalFailed:      d.totalFailed.Load(),
		TotalRateLimited: d.totalRateLimited.Load(),
		InFlight:         d.inFlight.Load(),
	}
	if n := d.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := d.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	d.lastErrorMu.Lock()
	st.LastError = d.lastError
	d.lastErrorMu.Unlock()
	return st
}

func (d *Dispatcher) setLastError(err error) {
	d.lastErrorMu.Lock()
	d.lastError = err.Error()
	d.lastErrorMu.Unlock()
}

func (d *Dispatcher) Run(ctx context.Context) error {
	t := time.NewTicker(d.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			d.runOnce(ctx)
		case <-d.triggerCh:
			d.runOnce(ctx)
		}
	}
}

func (d *Dispatcher) runOnce(ctx context.Context) {
	now := d.now()
	d.lastCycleUnixNano.Store(now.UnixNano())

	items, err := d.repo.ClaimDue(ctx, now, d.batchSize, d.lease)
	if err != nil {
		d.log.Error("claim due notifications", "err", err)
		d.setLastError(err)
		return
	}
	d.totalClaimed.Add(int64(len(items)))

	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup
	for _, n := range items {
		sem <- struct{}{}
		wg.Add(1)
		d.inFlight.Add(1)
		go func(n *models.Notification) {
			defer func() {
				d.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := d.processOne(ctx, n); err != nil {
				d.setLastError(err)
				d.log.Error("process notification", "id", n.ID, "template", n.Template, "err", err)
			}
		}(n)
	}
	wg.Wait()
}

func (d *Dispatcher) processOne(ctx context.Context, n *models.Notification) error {
	if d.rl != nil && d.rateLimitPerMinute > 0 {
		dec, err := d.rl.Allow(ctx, "send:"+d.provider, d.rateLimitPerMinute, time.Minute)
		if err != nil {
			return errors.Wrap(err, "rate limit")
		}
		if !dec.Allowed {
			// попытку не тратим: строка вернётся в выборку, когда истечёт lease
			d.totalRateLimited.Add(1)
			d.log.Warn("rate limit exceeded", "provider", d.provider, "count", dec.Count, "retry_after", dec.RetryAfter)
			return nil
		}
	}

	msg, err := d.render(n)
	if err != nil {
		d.totalFailed.Add(1)
		return d.repo.MarkFailed(ctx, n.ID, err.Error(), d.now())
	}

	start := time.Now()
	providerID, sendErr := d.sender.Send(ctx, msg)
	d.metrics.SendDuration.Observe(time.Since(start).Seconds())
	now := d.now()

	if sendErr == nil {
		d.totalSent.Add(1)
		d.metrics.NotificationsSent.WithLabelValues(d.provider).Inc()
		return errors.Wrap(d.repo.MarkSent(ctx, n.ID, providerID, now), "mark sent")
	}

	d.metrics.NotificationsFailed.WithLabelValues(d.provider).Inc()
	attempt := n.Attempts + 1
	if mailer.IsRejected(sendErr) || d.planner.GiveUp(attempt) {
		d.totalFailed.Add(1)
		if err := d.repo.MarkFailed(ctx, n.ID, sendErr.Error(), now); err != nil {
			return errors.Wrap(err, "mark failed")
		}
		return sendErr
	}

	d.totalRetried.Add(1)
	next := now.Add(d.planner.BackoffDelay(attempt))
	if err := d.repo.MarkRetry(ctx, n.ID, sendErr.Error(), next, now); err != nil {
		return errors.Wrap(err, "mark retry")
	}
	return sendErr
}

func (d *Dispatcher) render(n *models.Notification) (mailer.Message, error) {
	var data map[string]any
	if len(n.DataJSON) > 0 {
		if err := json.Unmarshal(n.DataJSON, &data); err != nil {
			return mailer.Message{}, errors.Wrap(err, "decode notification data")
		}
	}
	return d.renderer.Message(messages.Notification{
		ID:        n.ID,
		Template:  n.Template,
		To:        n.Recipient,
		Subject:   n.Subject,
		Data:      data,
		CreatedAt: n.CreatedAt,
	})
}
