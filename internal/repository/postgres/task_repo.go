package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskit/internal/logger"
	"taskit/internal/models/task"
	repo "taskit/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TaskStorage struct {
	*Storage
}

func NewTaskStorage(s *Storage) *TaskStorage {
	return &TaskStorage{Storage: s}
}

const taskColumns = `uuid, user_id, title, description, due_date, due_time, tag,
	notifications_enabled, completed, completed_at, created_at, updated_at, version`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.DueTime,
		&t.Tag,
		&t.NotificationsEnabled,
		&t.Completed,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	return t, err
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("create_task", start)

	query := `INSERT INTO tasks
				(uuid, user_id, title, description, due_date, due_time, tag,
				 notifications_enabled, completed, completed_at, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), 1)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.UserID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DueDate,
		taskToCreate.DueTime,
		taskToCreate.Tag,
		taskToCreate.NotificationsEnabled,
		taskToCreate.Completed,
		taskToCreate.CompletedAt,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)
	if err != nil {
		logger.Error("Repository: failed to insert task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("update_task", start)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				due_date = $3,
				due_time = $4,
				tag = $5,
				notifications_enabled = $6,
				completed = $7,
				completed_at = $8,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $9 AND user_id = $10 AND version = $11
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.DueDate,
		taskToUpdate.DueTime,
		taskToUpdate.Tag,
		taskToUpdate.NotificationsEnabled,
		taskToUpdate.Completed,
		taskToUpdate.CompletedAt,
		taskToUpdate.UUID,
		taskToUpdate.UserID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetByID(ctx, taskToUpdate.UserID, taskToUpdate.UUID); getErr != nil {
			return getErr
		}
		logger.Warn("Repository: version conflict on update",
			zap.String("task_id", taskToUpdate.UUID.String()),
			zap.Int("expected_version", taskToUpdate.Version))
		return repo.ErrVersionConflict
	}
	if err != nil {
		logger.Error("Repository: failed to update task", err)
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("get_task", start)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1 AND user_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		logger.Error("Repository: failed to get task", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStorage) ListByUser(ctx context.Context, userID string, onlyIncomplete bool) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list_tasks", start)

	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE user_id = $1 AND ($2 = FALSE OR completed = FALSE)
				ORDER BY created_at, uuid`

	rows, err := s.pool.Query(ctx, query, userID, onlyIncomplete)
	if err != nil {
		logger.Error("Repository: failed to list tasks", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: failed to scan task", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err)
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStorage) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("delete_task", start)

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Error("Repository: failed to delete task", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
