package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/CargoTrack/config"
	cargoapi "github.com/BearBump/CargoTrack/internal/api/cargo_api"
	"github.com/BearBump/CargoTrack/internal/broker/kafka"
	"github.com/BearBump/CargoTrack/internal/cache/rediscache"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/provider"
	"github.com/BearBump/CargoTrack/internal/services/contacts"
	"github.com/BearBump/CargoTrack/internal/services/notify"
	"github.com/BearBump/CargoTrack/internal/services/shipments"
	"github.com/BearBump/CargoTrack/internal/services/trackings"
	"github.com/BearBump/CargoTrack/internal/storage/mongostore"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type cargoAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    cargoAPIOpts
	handler http.Handler
	log     *logger.ZapLogger
	closers []func(ctx context.Context)
}

func mustBootstrapCargoAPI() *cargoAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	ct := cfg.CargoTrack

	log := logger.New(ct.Env == "dev")
	m := metrics.NewMetrics("cargotrack", prometheus.DefaultRegisterer)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &cargoAPIApp{ctx: ctx, cancel: cancel, log: log}

	st := mustOpenMongoWithRetry(ctx, cfg.Mongo, 60*time.Second)
	app.closers = append(app.closers, func(ctx context.Context) { _ = st.Close(ctx) })

	cacheTTL := time.Duration(ct.TrackingCacheTTLSeconds) * time.Second
	if ct.TrackingCacheTTLSeconds == 0 {
		cacheTTL = 5 * time.Minute
	}
	rc := rediscache.New(cfg.Redis.Addr(), rediscache.WithPrefix("cargotrack:"))
	rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
	app.closers = append(app.closers, func(context.Context) {
		_ = rc.Close()
		_ = rl.Close()
	})

	notifier := app.mustNotifier(ctx, cfg, m)

	api := cargoapi.New(
		trackings.New(st, rc, cacheTTL, notifier, log.With("component", "trackings"), m),
		shipments.New(st, notifier, cfg.Mail.AdminEmail, log.With("component", "shipments")),
		contacts.New(st, notifier, cfg.Mail.AdminEmail, log.With("component", "contacts")),
		log.With("component", "http"), m,
	).WithFormRateLimit(rl, int64(ct.PublicFormRateLimitPerMinute))

	app.opts = cargoAPIOpts{
		httpAddr:       orDefault(ct.HTTPAddr, ":8080"),
		apiPrefix:      orDefault(ct.APIPrefix, "/api"),
		swaggerPath:    swaggerPath,
		allowedOrigins: ct.AllowedOrigins,
	}
	app.handler = newRouter(app.opts, api.Routes(), map[string]pinger{"mongo": st, "redis": rc})
	return app
}

// mustNotifier wires the notification path chosen by notify_mode.
func (a *cargoAPIApp) mustNotifier(ctx context.Context, cfg *config.Config, m *metrics.Metrics) notify.Notifier {
	ct := cfg.CargoTrack
	log := a.log.With("component", "notify")

	switch ct.NotifyMode {
	case "", "kafka":
		topic := orDefault(cfg.Kafka.NotificationsTopicName, "cargotrack.notifications")
		producer := kafka.NewProducer(cfg.Kafka.Brokers(), topic)
		n := notify.NewKafkaNotifier(producer, ct.NotifyConcurrency, log, m)
		a.closers = append(a.closers, func(ctx context.Context) {
			_ = n.Wait(ctx)
			_ = producer.Close()
		})
		log.Info("notifications go through kafka", "topic", topic)
		return n
	case "direct":
		r, err := notify.NewRenderer(cfg.Mail.FromName)
		if err != nil {
			panic(err)
		}
		sender, name, err := provider.New(ctx, cfg.Mail)
		if err != nil {
			panic(err)
		}
		n := notify.NewDirectNotifier(r, sender, name, ct.NotifyConcurrency, log, m)
		a.closers = append(a.closers, func(ctx context.Context) { _ = n.Wait(ctx) })
		log.Info("notifications are sent in-process", "provider", name)
		return n
	case "off":
		return notify.Nop{}
	default:
		panic(fmt.Sprintf("unknown notify_mode %q", ct.NotifyMode))
	}
}

func mustOpenMongoWithRetry(ctx context.Context, cfg config.MongoConfig, wait time.Duration) *mongostore.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := mongostore.New(ctx, cfg.URI, cfg.Username, cfg.Password, orDefault(cfg.Database, "cargotrack"))
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("mongo is not ready after %s: %v", wait, lastErr))
}

func (a *cargoAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// в обратном порядке: сначала дожидаемся писем, потом закрываем хранилища
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.log.Sync()
}

func (a *cargoAPIApp) Run() error {
	return runCargoAPI(a.ctx, a.opts, a.handler, a.log)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
