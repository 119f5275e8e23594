package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/CargoTrack/config"
	"github.com/BearBump/CargoTrack/internal/broker/kafka"
	"github.com/BearBump/CargoTrack/internal/broker/messages"
	"github.com/BearBump/CargoTrack/internal/cache/rediscache"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/provider"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/dispatch"
	"github.com/BearBump/CargoTrack/internal/services/notify"
	"github.com/BearBump/CargoTrack/internal/storage/pgnotify"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// outbox is everything the worker needs from the notification store.
type outbox interface {
	dispatch.Repository
	Enqueue(ctx context.Context, n *models.Notification, now time.Time) (bool, error)
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	Requeue(ctx context.Context, id string, now time.Time) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Ping(ctx context.Context) error
}

type consumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
	Close() error
}

type workerFactories struct {
	newStorage     func(ctx context.Context, cfg *config.Config) (repo outbox, closeFn func(), err error)
	newConsumer    func(cfg *config.Config) consumer
	newRateLimiter func(cfg *config.Config) (dispatch.RateLimiter, func())
	newSender      func(ctx context.Context, cfg *config.Config) (mailer.Sender, string, error)
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (outbox, func(), error) {
			st, err := pgnotify.New(ctx, cfg.Database.ConnString())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config) consumer {
			topic := orDefault(cfg.Kafka.NotificationsTopicName, "cargotrack.notifications")
			group := orDefault(cfg.Kafka.NotificationsConsumerGroup, "cargotrack-notify-worker")
			return kafka.NewConsumer(cfg.Kafka.Brokers(), topic, group)
		},
		newRateLimiter: func(cfg *config.Config) (dispatch.RateLimiter, func()) {
			rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
			return rl, func() { _ = rl.Close() }
		},
		newSender: func(ctx context.Context, cfg *config.Config) (mailer.Sender, string, error) {
			return provider.New(ctx, cfg.Mail)
		},
	}
}

type workerDeps struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	http    workerHTTPOpts
}

// RunNotifyWorker runs the Kafka ingest, the dispatcher and the ops HTTP
// server until ctx is cancelled or one of them fails.
func RunNotifyWorker(ctx context.Context, deps workerDeps, f workerFactories) error {
	cfg, log := deps.cfg, deps.log
	ct := cfg.CargoTrack

	repo, closeFn, err := f.newStorage(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open outbox")
	}
	if closeFn != nil {
		defer closeFn()
	}

	rl, closeRL := f.newRateLimiter(cfg)
	if closeRL != nil {
		defer closeRL()
	}

	sender, providerName, err := f.newSender(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "mail provider")
	}
	renderer, err := notify.NewRenderer(cfg.Mail.FromName)
	if err != nil {
		return errors.Wrap(err, "templates")
	}

	d := dispatch.New(repo, renderer, sender, providerName, rl, log.With("component", "dispatch"), deps.metrics).
		WithSettings(
			seconds(ct.WorkerPollIntervalSeconds),
			ct.WorkerBatchSize,
			ct.WorkerConcurrency,
			seconds(ct.WorkerLeaseSeconds),
			int64(ct.WorkerRateLimitPerMinute),
		).
		WithPlanner(dispatch.PlannerConfig{
			Backoff1:    seconds(ct.WorkerBackoff1Seconds),
			Backoff2:    seconds(ct.WorkerBackoff2Seconds),
			Backoff3:    seconds(ct.WorkerBackoff3Seconds),
			Backoff4:    seconds(ct.WorkerBackoff4Seconds),
			MaxAttempts: int32(ct.WorkerMaxAttempts),
		})

	c := f.newConsumer(cfg)
	defer c.Close()

	log.Info("notify-worker started", "provider", providerName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Consume(gctx, ingestHandler(repo, d, log.With("component", "ingest"), time.Now))
	})
	g.Go(func() error {
		return d.Run(gctx)
	})
	g.Go(func() error {
		opts := deps.http
		opts.dispatcher = d
		opts.repo = repo
		return runWorkerHTTPServer(gctx, opts)
	})
	return g.Wait()
}

// ingestHandler moves notifications from Kafka into the outbox. Malformed
// messages are skipped; store failures stop the consumer without a commit so
// the message is redelivered.
func ingestHandler(repo outbox, d *dispatch.Dispatcher, log logger.Logger, now func() time.Time) kafka.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var n messages.Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			log.Warn("malformed notification", "offset", msg.Offset, "err", err)
			return kafka.ErrSkip
		}
		if err := n.Validate(); err != nil {
			log.Warn("invalid notification", "offset", msg.Offset, "err", err)
			return kafka.ErrSkip
		}

		var data []byte
		if len(n.Data) > 0 {
			b, err := json.Marshal(n.Data)
			if err != nil {
				return kafka.ErrSkip
			}
			data = b
		}
		created := n.CreatedAt
		if created.IsZero() {
			created = now()
		}

		added, err := repo.Enqueue(ctx, &models.Notification{
			ID:        n.ID,
			Template:  n.Template,
			Recipient: n.To,
			Subject:   n.Subject,
			DataJSON:  data,
			CreatedAt: created,
		}, now())
		if err != nil {
			return err
		}
		if !added {
			log.Debug("duplicate notification", "id", n.ID)
			return nil
		}
		if d != nil {
			d.Trigger()
		}
		return nil
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
