package postgres

import (
	"context"
	"fmt"
	"time"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"

	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, user_id, type, title, message, data, is_read, created_at, published_at`

func scanNotification(row pgx.Row) (model.Notification, error) {
	var (
		n     model.Notification
		ntype string
		data  []byte
	)
	err := row.Scan(&n.ID, &n.UserID, &ntype, &n.Title, &n.Message, &data, &n.IsRead, &n.CreatedAt, &n.PublishedAt)
	if err != nil {
		return model.Notification{}, err
	}
	n.Type = model.NotificationType(ntype)
	if len(data) > 0 {
		n.Data = data
	}
	return n, nil
}

func collectNotifications(rows pgx.Rows) ([]model.Notification, error) {
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CreateNotification(ctx context.Context, n model.Notification) error {
	const stmt = `
INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var data []byte
	if len(n.Data) > 0 {
		data = n.Data
	}
	_, err := s.exec(ctx, stmt, n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.IsRead, n.CreatedAt, n.PublishedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := `
SELECT ` + notificationColumns + ` FROM notifications
WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
ORDER BY created_at DESC, id DESC`
	args := []any{userID, unreadOnly}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out, err := collectNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	tag, err := s.exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("mark notification %s read: %w", id, auctionerrors.ErrNotificationNotFound)
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark notification %s read: %w", id, auctionerrors.ErrNotificationNotFound)
	}
	return nil
}

func (s *Store) ListUnpublishedNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	const query = `
SELECT ` + notificationColumns + ` FROM notifications
WHERE published_at IS NULL
ORDER BY created_at, id
LIMIT $1`

	rows, err := s.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpublished notifications: %w", err)
	}
	out, err := collectNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("list unpublished notifications: %w", err)
	}
	return out, nil
}

func (s *Store) MarkNotificationPublished(ctx context.Context, id string, at time.Time) error {
	tag, err := s.exec(ctx, `UPDATE notifications SET published_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark notification published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark notification %s published: %w", id, auctionerrors.ErrNotificationNotFound)
	}
	return nil
}
