package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/CargoTrack/config"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	log := logger.New(cfg.CargoTrack.Env == "dev")
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps := workerDeps{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewMetrics("cargotrack_worker", prometheus.DefaultRegisterer),
		http: workerHTTPOpts{
			httpAddr:    orDefault(cfg.CargoTrack.WorkerHTTPAddr, ":8082"),
			swaggerPath: os.Getenv("swaggerPath"),
			log:         log.With("component", "http"),
		},
	}

	if err := RunNotifyWorker(ctx, deps, defaultWorkerFactories()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("notify-worker stopped", "err", err)
	}
}
