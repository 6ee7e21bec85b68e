package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskit/internal/models/notification"
	"taskit/internal/models/task"
	"taskit/internal/reminder"
	rep "taskit/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("taskit/internal/service")

type Feed struct {
	Items  []notification.Notification `json:"items"`
	Unread int                         `json:"unread"`
}

type NotificationService struct {
	tasks         TaskRepository
	notifications NotificationRepository
	now           func() time.Time
}

func NewNotificationService(tasks TaskRepository, notifications NotificationRepository, opts ...Option) *NotificationService {
	o := buildOptions(opts)
	return &NotificationService{
		tasks:         tasks,
		notifications: notifications,
		now:           o.now,
	}
}

// List merges persisted notifications with reminders derived from the
// user's incomplete tasks. Both reads run concurrently and either failing
// fails the whole call.
func (s *NotificationService) List(ctx context.Context, userID string, loc *time.Location) (Feed, error) {
	ctx, span := tracer.Start(ctx, "NotificationService.List",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	var (
		tasks     []*task.Task
		persisted []notification.Notification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.ListByUser(gctx, userID, true)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		persisted, err = s.notifications.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list notifications: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Feed{}, err
	}

	now := s.now().In(location(loc))
	items := reminder.Merge(persisted, reminder.Synthesize(tasks, now))
	unread := reminder.UnreadCount(items)

	span.SetAttributes(
		attribute.Int("notifications.persisted", len(persisted)),
		attribute.Int("notifications.total", len(items)),
		attribute.Int("notifications.unread", unread),
	)
	return Feed{Items: items, Unread: unread}, nil
}

// MarkRead flags a stored notification. Reminders are derived on every
// read and have no state to change.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if reminder.IsReminderID(id) {
		return NewForbidden(ResourceNotification, id, "reminders cannot be marked read")
	}
	if err := s.notifications.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceNotification, id)
		}
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
