package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/dispatch"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type workerHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)
	log         logger.Logger

	dispatcher *dispatch.Dispatcher
	repo       outbox
	now        func() time.Time
}

// notificationView is the ops representation of an outbox row.
type notificationView struct {
	ID         string          `json:"id"`
	Template   string          `json:"template"`
	Recipient  string          `json:"recipient"`
	Subject    string          `json:"subject"`
	Data       json.RawMessage `json:"data,omitempty"`
	Status     string          `json:"status"`
	Attempts   int32           `json:"attempts"`
	NextSendAt time.Time       `json:"nextSendAt"`
	LastError  *string         `json:"lastError,omitempty"`
	ProviderID *string         `json:"providerId,omitempty"`
	SentAt     *time.Time      `json:"sentAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func toView(n *models.Notification) notificationView {
	v := notificationView{
		ID: n.ID, Template: n.Template, Recipient: n.Recipient, Subject: n.Subject,
		Status: n.Status, Attempts: n.Attempts, NextSendAt: n.NextSendAt,
		LastError: n.LastError, ProviderID: n.ProviderID, SentAt: n.SentAt,
		CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt,
	}
	if len(n.DataJSON) > 0 {
		v.Data = json.RawMessage(n.DataJSON)
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newWorkerRouter(opts workerHTTPOpts) http.Handler {
	if opts.now == nil {
		opts.now = func() time.Time { return time.Now().UTC() }
	}
	if opts.log == nil {
		opts.log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.repo == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage not wired"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := opts.repo.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "postgres": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		if opts.dispatcher == nil {
			writeJSON(w, http.StatusOK, map[string]string{"error": "dispatcher not wired"})
			return
		}
		out := map[string]any{"dispatcher": opts.dispatcher.Stats()}
		if opts.repo != nil {
			counts, err := opts.repo.CountByStatus(r.Context())
			if err != nil {
				opts.log.Error("count notifications", "err", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count notifications"})
				return
			}
			out["outbox"] = counts
		}
		writeJSON(w, http.StatusOK, out)
	})

	// Только рабочие параметры рассылки, без секретов провайдера.
	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		if opts.dispatcher == nil {
			writeJSON(w, http.StatusOK, map[string]string{"error": "dispatcher not wired"})
			return
		}
		writeJSON(w, http.StatusOK, opts.dispatcher.Settings())
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		if opts.dispatcher == nil {
			writeJSON(w, http.StatusOK, map[string]string{"error": "dispatcher not wired"})
			return
		}
		opts.dispatcher.Trigger()
		writeJSON(w, http.StatusOK, map[string]bool{"triggered": true})
	})

	r.Get("/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		n, err := opts.repo.GetNotification(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, models.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		case err != nil:
			opts.log.Error("get notification", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load notification"})
		default:
			writeJSON(w, http.StatusOK, toView(n))
		}
	})

	r.Post("/notifications/{id}/requeue", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := opts.repo.Requeue(r.Context(), id, opts.now())
		switch {
		case errors.Is(err, models.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no failed notification with this id"})
			return
		case err != nil:
			opts.log.Error("requeue notification", "id", id, "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to requeue notification"})
			return
		}
		if opts.dispatcher != nil {
			opts.dispatcher.Trigger()
		}
		writeJSON(w, http.StatusOK, map[string]any{"requeued": true, "id": id})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})

	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	return r
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("worker swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("worker swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newWorkerRouter(opts), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
