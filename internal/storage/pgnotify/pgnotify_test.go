package pgnotify

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "cargotrack_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/cargotrack_test?sslmode=disable"
	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func newNotification(template string, createdAt time.Time) *models.Notification {
	return &models.Notification{
		ID:        uuid.NewString(),
		Template:  template,
		Recipient: "ann@example.com",
		Subject:   "subject",
		DataJSON:  []byte(`{"trackingNumber":"T1"}`),
		CreatedAt: createdAt,
	}
}

func TestPGNotify_OutboxFlow(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()
	require.NoError(t, st.Ping(ctx))

	now := time.Now().UTC().Truncate(time.Microsecond)
	a := newNotification("tracking_created", now)
	b := newNotification("contact_admin", now)

	inserted, err := st.Enqueue(ctx, a, now.Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, inserted)

	// повторная доставка того же сообщения из Kafka
	inserted, err = st.Enqueue(ctx, a, now)
	require.NoError(t, err)
	require.False(t, inserted)

	_, err = st.Enqueue(ctx, b, now.Add(time.Hour))
	require.NoError(t, err)

	lease := 30 * time.Second
	due, err := st.ClaimDue(ctx, now, 10, lease)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, a.ID, due[0].ID)
	require.JSONEq(t, `{"trackingNumber":"T1"}`, string(due[0].DataJSON))
	require.WithinDuration(t, now.Add(lease), due[0].NextSendAt, time.Second)

	// пока lease не истёк, строку никто не возьмёт
	again, err := st.ClaimDue(ctx, now, 10, lease)
	require.NoError(t, err)
	require.Empty(t, again)

	require.NoError(t, st.MarkRetry(ctx, a.ID, "timeout", now.Add(time.Minute), now))
	got, err := st.GetNotification(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.Attempts)
	require.Equal(t, "timeout", *got.LastError)
	require.Equal(t, models.NotificationStatusPending, got.Status)

	require.NoError(t, st.MarkSent(ctx, a.ID, "prov-1", now.Add(2*time.Minute)))
	got, err = st.GetNotification(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusSent, got.Status)
	require.EqualValues(t, 2, got.Attempts)
	require.Equal(t, "prov-1", *got.ProviderID)
	require.Nil(t, got.LastError)
	require.NotNil(t, got.SentAt)

	require.NoError(t, st.MarkFailed(ctx, b.ID, "rejected", now))
	require.ErrorIs(t, st.Requeue(ctx, a.ID, now), models.ErrNotFound) // sent, не failed
	require.NoError(t, st.Requeue(ctx, b.ID, now))
	got, err = st.GetNotification(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusPending, got.Status)
	require.Zero(t, got.Attempts)

	counts, err := st.CountByStatus(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts[models.NotificationStatusSent])
	require.EqualValues(t, 1, counts[models.NotificationStatusPending])
	require.EqualValues(t, 0, counts[models.NotificationStatusFailed])

	_, err = st.GetNotification(ctx, uuid.NewString())
	require.ErrorIs(t, err, models.ErrNotFound)
}
