package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskit/internal/logger"
	"taskit/internal/models/notification"
	repo "taskit/internal/repository"
	"taskit/internal/timestamp"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type NotificationStorage struct {
	*Storage
}

func NewNotificationStorage(s *Storage) *NotificationStorage {
	return &NotificationStorage{Storage: s}
}

func (s *NotificationStorage) Create(ctx context.Context, n *notification.Notification) error {
	start := time.Now()
	defer warnIfSlow("create_notification", start)

	query := `INSERT INTO notifications (id, user_id, task_id, title, message, created_at, read)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query, n.ID, n.UserID, n.TaskID, n.Title, n.Message, n.Timestamp.Store(), n.Read)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: failed to insert notification", err)
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser returns newest first; rows without a timestamp come last.
func (s *NotificationStorage) ListByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	start := time.Now()
	defer warnIfSlow("list_notifications", start)

	query := `SELECT id, user_id, task_id, title, message, created_at, read
				FROM notifications
				WHERE user_id = $1
				ORDER BY created_at DESC NULLS LAST`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		logger.Error("Repository: failed to list notifications", err)
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := []notification.Notification{}
	for rows.Next() {
		var (
			n  notification.Notification
			ts pgtype.Timestamptz
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Title, &n.Message, &ts, &n.Read); err != nil {
			logger.Warn("Repository: failed to scan notification", zap.Error(err))
			continue
		}
		n.Timestamp = timestamp.Resolve(ts)
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationStorage) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Error("Repository: failed to mark notification read", err)
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
