package notify

import (
	"context"
	"sync"
	"time"

	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
)

// Notifier accepts a notification and returns immediately. Delivery
// failures never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, n messages.Notification)
}

type Nop struct{}

func (Nop) Notify(context.Context, messages.Notification) {}

// async runs fire-and-forget jobs detached from the request context, with at
// most cap(sem) running at once.
type async struct {
	sem     chan struct{}
	timeout time.Duration
	wg      sync.WaitGroup
	log     logger.Logger
}

func newAsync(concurrency int, timeout time.Duration, log logger.Logger) *async {
	if concurrency <= 0 {
		concurrency = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &async{sem: make(chan struct{}, concurrency), timeout: timeout, log: log}
}

func (a *async) spawn(ctx context.Context, n messages.Notification, job func(ctx context.Context) error) {
	// запрос может завершиться раньше письма - отвязываемся от его отмены
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		select {
		case a.sem <- struct{}{}:
		case <-jobCtx.Done():
			a.log.Warn("notification dropped", "id", n.ID, "template", n.Template, "err", jobCtx.Err())
			return
		}
		defer func() { <-a.sem }()

		if err := job(jobCtx); err != nil {
			a.log.Error("notification failed", "id", n.ID, "template", n.Template, "err", err)
		}
	}()
}

// Wait blocks until in-flight jobs finish or ctx is done.
func (a *async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type publisher interface {
	PublishJSON(ctx context.Context, key string, v any, headers map[string]string) error
}

// KafkaNotifier hands notifications to the notify-worker through Kafka.
type KafkaNotifier struct {
	*async
	pub     publisher
	metrics *metrics.Metrics
}

func NewKafkaNotifier(pub publisher, concurrency int, log logger.Logger, m *metrics.Metrics) *KafkaNotifier {
	return &KafkaNotifier{
		async:   newAsync(concurrency, 10*time.Second, log),
		pub:     pub,
		metrics: m,
	}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n messages.Notification) {
	k.spawn(ctx, n, func(ctx context.Context) error {
		if err := k.pub.PublishJSON(ctx, n.ID, n, map[string]string{"template": n.Template}); err != nil {
			return err
		}
		k.metrics.NotificationsQueued.WithLabelValues(n.Template).Inc()
		return nil
	})
}

// DirectNotifier renders and sends in-process, retrying transient failures.
type DirectNotifier struct {
	*async
	renderer *Renderer
	sender   mailer.Sender
	provider string
	backoff  []time.Duration
	metrics  *metrics.Metrics
}

var defaultDirectBackoff = []time.Duration{500 * time.Millisecond, 2 * time.Second}

func NewDirectNotifier(r *Renderer, sender mailer.Sender, provider string, concurrency int, log logger.Logger, m *metrics.Metrics) *DirectNotifier {
	return &DirectNotifier{
		async:    newAsync(concurrency, time.Minute, log),
		renderer: r,
		sender:   sender,
		provider: provider,
		backoff:  defaultDirectBackoff,
		metrics:  m,
	}
}

// WithBackoff overrides the pauses between attempts (one attempt per entry plus one).
func (d *DirectNotifier) WithBackoff(b []time.Duration) *DirectNotifier {
	d.backoff = b
	return d
}

func (d *DirectNotifier) Notify(ctx context.Context, n messages.Notification) {
	d.metrics.NotificationsQueued.WithLabelValues(n.Template).Inc()
	d.spawn(ctx, n, func(ctx context.Context) error {
		msg, err := d.renderer.Message(n)
		if err != nil {
			return err
		}
		for attempt := 0; ; attempt++ {
			start := time.Now()
			id, err := d.sender.Send(ctx, msg)
			d.metrics.SendDuration.Observe(time.Since(start).Seconds())
			if err == nil {
				d.metrics.NotificationsSent.WithLabelValues(d.provider).Inc()
				d.log.Info("notification sent", "id", n.ID, "template", n.Template, "provider_id", id)
				return nil
			}
			d.metrics.NotificationsFailed.WithLabelValues(d.provider).Inc()
			if mailer.IsRejected(err) || attempt >= len(d.backoff) {
				return err
			}
			select {
			case <-time.After(d.backoff[attempt]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}
