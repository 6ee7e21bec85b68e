package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"taskit/internal/duestate"
	"taskit/internal/models/task"
)

type CreateTaskInput struct {
	Title                string
	Description          string
	DueDate              string
	DueTime              string
	Tag                  string
	NotificationsEnabled bool
}

// normalize trims the input and fills DueTime from now when it is empty.
func (in CreateTaskInput) normalize(now time.Time) CreateTaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = strings.TrimSpace(in.DueDate)
	in.DueTime = strings.TrimSpace(in.DueTime)
	in.Tag = strings.TrimSpace(in.Tag)
	if in.DueTime == "" {
		in.DueTime = now.Format(task.TimeLayout)
	}
	return in
}

func validateTask(t *task.Task) error {
	switch {
	case t.Title == "":
		return NewValidationError("title", "must not be empty")
	case utf8.RuneCountInString(t.Title) > task.MaxTitleLength:
		return NewValidationError("title", "must be at most 50 characters")
	case utf8.RuneCountInString(t.Description) > task.MaxDescriptionLength:
		return NewValidationError("description", "must be at most 500 characters")
	case t.Tag == "":
		return NewValidationError("tag", "must not be empty")
	case strings.EqualFold(t.Tag, task.TagCustom):
		return NewValidationError("tag", "enter a custom tag name")
	case utf8.RuneCountInString(t.Tag) > task.MaxTagLength:
		return NewValidationError("tag", "must be at most 50 characters")
	}

	if _, err := time.Parse(task.DateLayout, t.DueDate); err != nil {
		return NewValidationError("due_date", "must be a date in YYYY-MM-DD format")
	}
	if _, err := time.Parse(task.TimeLayout, t.DueTime); err != nil {
		return NewValidationError("due_time", "must be a time in HH:MM format")
	}
	return nil
}

// validateNotPast rejects due dates before the calendar day of now.
func validateNotPast(t *task.Task, now time.Time) error {
	day, ok := duestate.ParseDate(t.DueDate, now.Location())
	if !ok {
		return NewValidationError("due_date", "must be a date in YYYY-MM-DD format")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return NewValidationError("due_date", "must not be in the past")
	}
	return nil
}

func matchesQuery(t *task.Task, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Tag), q)
}
