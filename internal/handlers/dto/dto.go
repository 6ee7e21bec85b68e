package dto

import (
	"time"

	"taskit/internal/duestate"
	"taskit/internal/models/notification"
	"taskit/internal/models/task"
	"taskit/internal/timestamp"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	DueDate              string `json:"due_date"`
	DueTime              string `json:"due_time"`
	Tag                  string `json:"tag"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

type UpdateTaskRequest struct {
	Title                *string `json:"title,omitempty"`
	Description          *string `json:"description,omitempty"`
	DueDate              *string `json:"due_date,omitempty"`
	DueTime              *string `json:"due_time,omitempty"`
	Tag                  *string `json:"tag,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}

// Options turns the request into task options; absent fields yield nil.
func (r UpdateTaskRequest) Options() []task.TaskOption {
	return []task.TaskOption{
		task.WithTitle(deref(r.Title)),
		task.WithDescription(r.Description),
		task.WithDueDate(deref(r.DueDate)),
		task.WithDueTime(deref(r.DueTime)),
		task.WithTag(deref(r.Tag)),
		task.WithNotifications(r.NotificationsEnabled),
	}
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.DueDate == nil &&
		r.DueTime == nil && r.Tag == nil && r.NotificationsEnabled == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type TaskResponse struct {
	UUID                 uuid.UUID  `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	DueDate              string     `json:"due_date"`
	DueTime              string     `json:"due_time"`
	Tag                  string     `json:"tag"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	Completed            bool       `json:"completed"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
	Version              int        `json:"version"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:                 t.UUID,
		Title:                t.Title,
		Description:          t.Description,
		DueDate:              t.DueDate,
		DueTime:              t.DueTime,
		Tag:                  t.Tag,
		NotificationsEnabled: t.NotificationsEnabled,
		Completed:            t.Completed,
		CompletedAt:          t.CompletedAt,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		Version:              t.Version,
	}
}

type TaskStateResponse struct {
	TaskResponse
	Day           duestate.DayBucket      `json:"day"`
	Reminder      duestate.ReminderBucket `json:"reminder"`
	HoursUntilDue float64                 `json:"hours_until_due"`
	Label         string                  `json:"label"`
	IsOverdue     bool                    `json:"is_overdue"`
}

func FromEntry(e duestate.Entry) TaskStateResponse {
	c := e.Classification
	return TaskStateResponse{
		TaskResponse:  FromTask(e.Task),
		Day:           c.Day,
		Reminder:      c.Reminder,
		HoursUntilDue: c.HoursUntilDue,
		Label:         c.Label,
		IsOverdue:     c.Day == duestate.DayOverdue && !e.Task.Completed,
	}
}

func FromEntries(entries []duestate.Entry) []TaskStateResponse {
	result := make([]TaskStateResponse, len(entries))
	for i, e := range entries {
		result[i] = FromEntry(e)
	}
	return result
}

type DayGroupResponse struct {
	Date  string              `json:"date"`
	Count int                 `json:"count"`
	Tasks []TaskStateResponse `json:"tasks"`
}

func FromGroups(groups []duestate.DayGroup) []DayGroupResponse {
	result := make([]DayGroupResponse, len(groups))
	for i, g := range groups {
		result[i] = DayGroupResponse{Date: g.Date, Count: len(g.Tasks), Tasks: FromEntries(g.Tasks)}
	}
	return result
}

type DashboardResponse struct {
	Overdue  []TaskStateResponse `json:"overdue"`
	Today    []TaskStateResponse `json:"today"`
	Tomorrow []TaskStateResponse `json:"tomorrow"`
	Future   []TaskStateResponse `json:"future"`
}

func FromDashboard(d duestate.Dashboard) DashboardResponse {
	return DashboardResponse{
		Overdue:  FromEntries(d.Overdue),
		Today:    FromEntries(d.Today),
		Tomorrow: FromEntries(d.Tomorrow),
		Future:   FromEntries(d.Future),
	}
}

type NotificationResponse struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"task_id,omitempty"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Timestamp   timestamp.Value `json:"timestamp"`
	Display     string          `json:"display_time"`
	Read        bool            `json:"read"`
	Synthesized bool            `json:"synthesized"`
}

func FromNotifications(items []notification.Notification, loc *time.Location) []NotificationResponse {
	result := make([]NotificationResponse, len(items))
	for i, n := range items {
		result[i] = NotificationResponse{
			ID:          n.ID,
			TaskID:      n.TaskID,
			Title:       n.Title,
			Message:     n.Message,
			Timestamp:   n.Timestamp,
			Display:     n.Timestamp.Format(loc),
			Read:        n.Read,
			Synthesized: n.Synthesized,
		}
	}
	return result
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Theme       *string `json:"theme,omitempty"`
}
