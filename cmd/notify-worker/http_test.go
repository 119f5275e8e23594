package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/BearBump/CargoTrack/internal/integrations/mailer/fake"
	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/BearBump/CargoTrack/internal/services/dispatch"
	"github.com/BearBump/CargoTrack/pkg/logger"
	"github.com/BearBump/CargoTrack/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo *memOutbox) (http.Handler, *dispatch.Dispatcher) {
	t.Helper()
	swagger := filepath.Join(t.TempDir(), "swagger.json")
	require.NoError(t, os.WriteFile(swagger, []byte(`{"swagger":"2.0"}`), 0o600))

	d := dispatch.New(repo, nil, fake.New(), "fake", nil, logger.NewNop(), metrics.Nop())
	return newWorkerRouter(workerHTTPOpts{
		swaggerPath: swagger,
		dispatcher:  d,
		repo:        repo,
		now:         clock,
	}), d
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestWorkerRouter_HealthAndReady(t *testing.T) {
	repo := newMemOutbox()
	h, _ := newTestRouter(t, repo)

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/readyz").Code)

	repo.pingErr = errors.New("dial tcp: refused")
	rec := do(h, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "refused")
}

func TestWorkerRouter_StatsAndConfig(t *testing.T) {
	repo := newMemOutbox()
	repo.rows["n1"] = &models.Notification{ID: "n1", Status: models.NotificationStatusFailed}
	repo.rows["n2"] = &models.Notification{ID: "n2", Status: models.NotificationStatusSent}
	h, _ := newTestRouter(t, repo)

	rec := do(h, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Dispatcher dispatch.Stats   `json:"dispatcher"`
		Outbox     map[string]int64 `json:"outbox"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, int64(1), stats.Outbox[models.NotificationStatusFailed])
	require.Equal(t, int64(1), stats.Outbox[models.NotificationStatusSent])
	require.Equal(t, int64(0), stats.Outbox[models.NotificationStatusPending])

	rec = do(h, http.MethodGet, "/config")
	require.Equal(t, http.StatusOK, rec.Code)
	var settings dispatch.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	require.Equal(t, "fake", settings.Provider)
	require.Len(t, settings.Backoff, 4)
}

func TestWorkerRouter_Trigger(t *testing.T) {
	h, d := newTestRouter(t, newMemOutbox())

	rec := do(h, http.MethodPost, "/trigger")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"triggered":true}`, rec.Body.String())
	require.NotNil(t, d.Stats().LastTriggerAt)
}

func TestWorkerRouter_GetNotification(t *testing.T) {
	repo := newMemOutbox()
	last := "mailbox unavailable"
	repo.rows["n1"] = &models.Notification{
		ID: "n1", Template: "contact_admin", Recipient: "ops@example.com", Subject: "New Contact Submission from Anna",
		DataJSON: []byte(`{"name":"Anna"}`), Status: models.NotificationStatusFailed, Attempts: 5, LastError: &last,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	h, _ := newTestRouter(t, repo)

	rec := do(h, http.MethodGet, "/notifications/n1")
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "ops@example.com", got["recipient"])
	require.Equal(t, "failed", got["status"])
	require.Equal(t, float64(5), got["attempts"])
	require.Equal(t, "mailbox unavailable", got["lastError"])
	require.Equal(t, map[string]any{"name": "Anna"}, got["data"])

	require.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/notifications/missing").Code)
}

func TestWorkerRouter_Requeue(t *testing.T) {
	repo := newMemOutbox()
	repo.rows["n1"] = &models.Notification{ID: "n1", Status: models.NotificationStatusFailed, Attempts: 5}
	repo.rows["n2"] = &models.Notification{ID: "n2", Status: models.NotificationStatusSent}
	h, d := newTestRouter(t, repo)

	rec := do(h, http.MethodPost, "/notifications/n1/requeue")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"n1"}, repo.requeued)
	require.Equal(t, models.NotificationStatusPending, repo.rows["n1"].Status)
	require.Equal(t, int32(0), repo.rows["n1"].Attempts)
	require.Equal(t, fixedNow, repo.rows["n1"].NextSendAt)
	require.NotNil(t, d.Stats().LastTriggerAt)

	// уже отправленное письмо повторно в очередь не ставим
	require.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/notifications/n2/requeue").Code)
	require.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/notifications/nope/requeue").Code)
}

func TestWorkerRouter_Swagger(t *testing.T) {
	h, _ := newTestRouter(t, newMemOutbox())

	rec := do(h, http.MethodGet, "/swagger.json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Contains(t, rec.Body.String(), `"swagger"`)
}

func TestRunWorkerHTTPServer_RequiresSwagger(t *testing.T) {
	err := runWorkerHTTPServer(context.Background(), workerHTTPOpts{httpAddr: "127.0.0.1:0"})
	require.ErrorContains(t, err, "swaggerPath")

	err = runWorkerHTTPServer(context.Background(), workerHTTPOpts{httpAddr: "127.0.0.1:0", swaggerPath: "/nonexistent/swagger.json"})
	require.ErrorContains(t, err, "not found")
}
