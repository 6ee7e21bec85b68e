package task

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// TagCustom is what the form sends when the user types their own tag.
	TagCustom = "custom"

	MaxTitleLength       = 50
	MaxDescriptionLength = 500
	MaxTagLength         = 50

	// CompletedRetention is how long a completed task stays in the active list.
	CompletedRetention = 24 * time.Hour
)

type Task struct {
	UUID                 uuid.UUID  `json:"id" db:"uuid"`
	UserID               string     `json:"user_id" db:"user_id"`
	Title                string     `json:"title" db:"title"`
	Description          string     `json:"description" db:"description"`
	DueDate              string     `json:"due_date" db:"due_date"`
	DueTime              string     `json:"due_time" db:"due_time"`
	Tag                  string     `json:"tag" db:"tag"`
	NotificationsEnabled bool       `json:"notifications_enabled" db:"notifications_enabled"`
	Completed            bool       `json:"completed" db:"completed"`
	CompletedAt          *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	Version              int        `json:"version" db:"version"`
}

// SetCompleted flips the completion flag and stamps or clears CompletedAt.
func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if done {
		at := now
		t.CompletedAt = &at
		return
	}
	t.CompletedAt = nil
}

// VisibleAt reports whether the task belongs in the active list at now.
// Completed tasks drop out once CompletedRetention has elapsed since
// CompletedAt.
func (t *Task) VisibleAt(now time.Time) bool {
	if !t.Completed {
		return true
	}
	// nothing to measure retention from
	if t.CompletedAt == nil {
		return true
	}
	return now.Sub(*t.CompletedAt) < CompletedRetention
}

// Clone returns a copy that shares no pointers with t.
func (t *Task) Clone() *Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.UpdatedAt != nil {
		at := *t.UpdatedAt
		c.UpdatedAt = &at
	}
	return &c
}
