package pgnotify

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/CargoTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const notificationCols = `
  id, template, recipient, subject, data,
  status, attempts, next_send_at,
  last_error, provider_id, sent_at,
  created_at, updated_at`

func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return " " + strings.Join(parts, ", ")
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID, &n.Template, &n.Recipient, &n.Subject, &n.DataJSON,
		&n.Status, &n.Attempts, &n.NextSendAt,
		&n.LastError, &n.ProviderID, &n.SentAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Enqueue stores a pending notification. A redelivered Kafka message with an
// id already present is ignored; the result reports whether a row was added.
func (s *Storage) Enqueue(ctx context.Context, n *models.Notification, now time.Time) (bool, error) {
	data := n.DataJSON
	if len(data) == 0 {
		data = []byte("{}")
	}
	tag, err := s.db.Exec(ctx, `
INSERT INTO notifications (
  id, template, recipient, subject, data, status, attempts, next_send_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,0,$7,$8,$7)
ON CONFLICT (id) DO NOTHING
`, n.ID, n.Template, n.Recipient, n.Subject, data, models.NotificationStatusPending, now.UTC(), n.CreatedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "insert notification")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Storage) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanNotification(s.db.QueryRow(ctx, `SELECT`+notificationCols+` FROM notifications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select notification")
	}
	return n, nil
}

// ClaimDue выбирает пачку ожидающих писем и "бронирует" их на lease,
// чтобы параллельные воркеры не взяли те же строки (FOR UPDATE SKIP LOCKED).
func (s *Storage) ClaimDue(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Notification, error) {
	rows, err := s.db.Query(ctx, `
WITH due AS (
  SELECT id
  FROM notifications
  WHERE status = $1
    AND next_send_at <= $2
  ORDER BY next_send_at ASC
  LIMIT $3
  FOR UPDATE SKIP LOCKED
)
UPDATE notifications n
SET next_send_at = $4, updated_at = $2
FROM due
WHERE n.id = due.id
RETURNING`+prefixed("n", notificationCols),
		models.NotificationStatusPending, now.UTC(), limit, now.UTC().Add(lease))
	if err != nil {
		return nil, errors.Wrap(err, "claim due notifications")
	}
	defer rows.Close()

	var picked []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan due notification")
		}
		picked = append(picked, n)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return picked, nil
}

func (s *Storage) MarkSent(ctx context.Context, id, providerID string, sentAt time.Time) error {
	_, err := s.db.Exec(ctx, `
UPDATE notifications
SET
  status = $2,
  attempts = attempts + 1,
  provider_id = $3,
  sent_at = $4,
  last_error = NULL,
  updated_at = $4
WHERE id = $1
`, id, models.NotificationStatusSent, providerID, sentAt.UTC())
	return errors.Wrap(err, "mark sent")
}

// MarkRetry records a failed attempt and reschedules the notification.
func (s *Storage) MarkRetry(ctx context.Context, id, lastError string, nextAt, now time.Time) error {
	_, err := s.db.Exec(ctx, `
UPDATE notifications
SET
  attempts = attempts + 1,
  last_error = $2,
  next_send_at = $3,
  updated_at = $4
WHERE id = $1
`, id, lastError, nextAt.UTC(), now.UTC())
	return errors.Wrap(err, "mark retry")
}

func (s *Storage) MarkFailed(ctx context.Context, id, lastError string, now time.Time) error {
	_, err := s.db.Exec(ctx, `
UPDATE notifications
SET
  status = $2,
  attempts = attempts + 1,
  last_error = $3,
  updated_at = $4
WHERE id = $1
`, id, models.NotificationStatusFailed, lastError, now.UTC())
	return errors.Wrap(err, "mark failed")
}

// Requeue returns a failed notification to the queue with a fresh attempt budget.
func (s *Storage) Requeue(ctx context.Context, id string, now time.Time) error {
	tag, err := s.db.Exec(ctx, `
UPDATE notifications
SET status = $2, attempts = 0, next_send_at = $3, updated_at = $3
WHERE id = $1 AND status = $4
`, id, models.NotificationStatusPending, now.UTC(), models.NotificationStatusFailed)
	if err != nil {
		return errors.Wrap(err, "requeue notification")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of notifications per status.
func (s *Storage) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT status, count(*) FROM notifications GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(err, "count notifications")
	}
	defer rows.Close()

	out := map[string]int64{
		models.NotificationStatusPending: 0,
		models.NotificationStatusSent:    0,
		models.NotificationStatusFailed:  0,
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "scan count")
		}
		out[status] = n
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
