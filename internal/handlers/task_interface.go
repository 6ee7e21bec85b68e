package handlers

import (
	"context"
	"io"
	"time"

	"taskit/internal/auth"
	"taskit/internal/duestate"
	"taskit/internal/models/task"
	"taskit/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(context.Context) error
	CreateTask(ctx context.Context, userID string, in service.CreateTaskInput, loc *time.Location) (*task.Task, error)
	GetTask(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, userID string, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, userID string, id uuid.UUID) error
	ToggleComplete(ctx context.Context, userID string, id uuid.UUID) (*task.Task, error)
	ListActive(ctx context.Context, userID, query string, loc *time.Location) ([]duestate.DayGroup, error)
	Dashboard(ctx context.Context, userID string, loc *time.Location) (duestate.Dashboard, error)
	Calendar(ctx context.Context, userID string, month time.Time, loc *time.Location) ([]duestate.DayGroup, error)
}

type NotificationService interface {
	List(ctx context.Context, userID string, loc *time.Location) (service.Feed, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (auth.Profile, error)
	Update(ctx context.Context, userID string, update auth.ProfileUpdate) (auth.Profile, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader) (auth.Profile, error)
}

type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*auth.Token, error)
	SignIn(ctx context.Context, email, password string) (*auth.Token, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*auth.Token, error)
}

type BlobOpener interface {
	Open(key string) (io.ReadSeekCloser, string, error)
}

var (
	_ TaskService         = (*service.TaskService)(nil)
	_ NotificationService = (*service.NotificationService)(nil)
	_ ProfileService      = (*service.ProfileService)(nil)
	_ AuthService         = (*auth.Service)(nil)
)
