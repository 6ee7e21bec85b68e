package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskit/internal/duestate"
	"taskit/internal/logger"
	"taskit/internal/models/notification"
	"taskit/internal/models/task"
	rep "taskit/internal/repository"
	"taskit/internal/timestamp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	now func() time.Time
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type TaskService struct {
	repo          TaskRepository
	notifications NotificationRepository
	now           func() time.Time
}

func NewTaskService(repo TaskRepository, notifications NotificationRepository, opts ...Option) *TaskService {
	o := buildOptions(opts)
	return &TaskService{
		repo:          repo,
		notifications: notifications,
		now:           o.now,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, in CreateTaskInput, loc *time.Location) (*task.Task, error) {
	now := s.now().In(location(loc))
	in = in.normalize(now)

	t := &task.Task{
		UUID:                 uuid.New(),
		UserID:               userID,
		Title:                in.Title,
		Description:          in.Description,
		DueDate:              in.DueDate,
		DueTime:              in.DueTime,
		Tag:                  in.Tag,
		NotificationsEnabled: in.NotificationsEnabled,
	}
	if err := validateTask(t); err != nil {
		return nil, err
	}
	if err := validateNotPast(t, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	logger.Info("Service: task created", zap.String("task_id", t.UUID.String()), zap.String("user_id", userID))

	if t.NotificationsEnabled {
		s.record(ctx, t, "New Task", fmt.Sprintf("New task %q has been created", t.Title))
	}
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies the non-nil options and stores the result. The due date
// is validated for shape only, so an overdue task can still be edited.
func (s *TaskService) UpdateTask(ctx context.Context, userID string, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error) {
	t, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	t.Apply(opts...)
	t.Title = strings.TrimSpace(t.Title)
	t.Tag = strings.TrimSpace(t.Tag)
	if err := validateTask(t); err != nil {
		return nil, err
	}

	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	logger.Info("Service: task updated", zap.String("task_id", id.String()), zap.Int("version", t.Version))

	if t.NotificationsEnabled {
		s.record(ctx, t, "Task Updated", fmt.Sprintf("Task %q has been updated", t.Title))
	}
	return t, nil
}

// ToggleComplete flips completion and stamps or clears the completion time.
func (s *TaskService) ToggleComplete(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error) {
	t, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	t.SetCompleted(!t.Completed, s.now())
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	logger.Info("Service: task completion toggled",
		zap.String("task_id", id.String()),
		zap.Bool("completed", t.Completed))
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceTask, id.String())
		}
		return fmt.Errorf("delete task: %w", err)
	}
	logger.Info("Service: task deleted", zap.String("task_id", id.String()))
	return nil
}

// ListActive returns visible tasks grouped by due date. Completed tasks stay
// visible for a day after completion. query filters on title or tag.
func (s *TaskService) ListActive(ctx context.Context, userID, query string, loc *time.Location) ([]duestate.DayGroup, error) {
	tasks, err := s.repo.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	now := s.now().In(location(loc))
	query = strings.TrimSpace(query)

	visible := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.VisibleAt(now) && matchesQuery(t, query) {
			visible = append(visible, t)
		}
	}
	return duestate.GroupByDay(visible, now), nil
}

func (s *TaskService) Dashboard(ctx context.Context, userID string, loc *time.Location) (duestate.Dashboard, error) {
	tasks, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return duestate.Dashboard{}, fmt.Errorf("list tasks: %w", err)
	}
	return duestate.Partition(tasks, s.now().In(location(loc))), nil
}

// Calendar groups every task due in the month of month, completed included.
func (s *TaskService) Calendar(ctx context.Context, userID string, month time.Time, loc *time.Location) ([]duestate.DayGroup, error) {
	tasks, err := s.repo.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	now := s.now().In(location(loc))
	inMonth := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		day, ok := duestate.ParseDate(t.DueDate, now.Location())
		if !ok {
			continue
		}
		if day.Year() == month.Year() && day.Month() == month.Month() {
			inMonth = append(inMonth, t)
		}
	}
	return duestate.GroupByDay(inMonth, now), nil
}

func (s *TaskService) save(ctx context.Context, t *task.Task) error {
	err := s.repo.Update(ctx, t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rep.ErrNotFound):
		return NewNotFound(ResourceTask, t.UUID.String())
	case errors.Is(err, rep.ErrVersionConflict):
		return NewVersionConflict(ResourceTask, t.UUID.String(), err)
	default:
		return fmt.Errorf("update task: %w", err)
	}
}

// record persists a lifecycle notification. Failures are logged only; the
// task write has already succeeded.
func (s *TaskService) record(ctx context.Context, t *task.Task, title, message string) {
	if s.notifications == nil {
		return
	}
	n := &notification.Notification{
		ID:        uuid.NewString(),
		UserID:    t.UserID,
		TaskID:    t.UUID.String(),
		Title:     title,
		Message:   message,
		Timestamp: timestamp.FromTime(s.now()),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		logger.Warn("Service: failed to persist notification",
			zap.String("task_id", t.UUID.String()),
			zap.Error(err))
	}
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
