package service

import (
	"context"
	"io"

	"taskit/internal/auth"
	"taskit/internal/blob"
	"taskit/internal/models/notification"
	"taskit/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error)
	ListByUser(ctx context.Context, userID string, onlyIncomplete bool) ([]*task.Task, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type NotificationRepository interface {
	Create(context.Context, *notification.Notification) error
	ListByUser(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (auth.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update auth.ProfileUpdate) (auth.Profile, error)
}

type AvatarStore interface {
	PutImage(ctx context.Context, key string, r io.Reader) (blob.Object, error)
	MaxBytes() int64
}
