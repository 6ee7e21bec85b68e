// Package duestate classifies tasks by how close they are to their due instant.
//
// Two scales are kept apart. Day buckets group tasks by calendar date for the
// dashboard and calendar. Reminder buckets use strict hour counts and drive
// notification synthesis. Both share the same sign test: a task due at or
// before now is overdue.
package duestate

import (
	"strings"
	"time"

	"taskit/internal/models/task"

	"github.com/dustin/go-humanize"
)

type DayBucket string

const (
	DayOverdue  DayBucket = "overdue"
	DayToday    DayBucket = "today"
	DayTomorrow DayBucket = "tomorrow"
	DayFuture   DayBucket = "future"
)

type ReminderBucket string

const (
	ReminderNone      ReminderBucket = "none"
	ReminderDueNow    ReminderBucket = "due-now"
	ReminderWithin24h ReminderBucket = "within-24h"
	ReminderWithin48h ReminderBucket = "within-48h"
)

// Label is the short tag used in synthesized notification ids.
func (b ReminderBucket) Label() string {
	switch b {
	case ReminderDueNow:
		return "due"
	case ReminderWithin24h:
		return "1day"
	case ReminderWithin48h:
		return "2days"
	default:
		return ""
	}
}

type Classification struct {
	DueAt         time.Time      `json:"due_at"`
	HoursUntilDue float64        `json:"hours_until_due"`
	Day           DayBucket      `json:"day"`
	Reminder      ReminderBucket `json:"reminder"`
	Label         string         `json:"label"`
}

var timeLayouts = []string{task.TimeLayout, "15:04:05", "3:04 PM", "3:04PM"}

// DueInstant combines DueDate and DueTime in loc. A DueDate that cannot be
// parsed yields false. A DueTime that cannot be parsed means midnight.
func DueInstant(t *task.Task, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	day, ok := ParseDate(t.DueDate, loc)
	if !ok {
		return time.Time{}, false
	}

	clock := strings.TrimSpace(t.DueTime)
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc), true
	}
	return day, true
}

// ParseDate accepts YYYY-MM-DD and, for older records, a full RFC 3339
// timestamp. The result is midnight of that calendar date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if day, err := time.ParseInLocation(task.DateLayout, value, loc); err == nil {
		return day, true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		ts = ts.In(loc)
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// Classify evaluates t against now in now's location. The second result is
// false when the task has no usable due date. t is never modified.
func Classify(t *task.Task, now time.Time) (Classification, bool) {
	dueAt, ok := DueInstant(t, now.Location())
	if !ok {
		return Classification{}, false
	}

	until := dueAt.Sub(now)
	hours := until.Hours()

	return Classification{
		DueAt:         dueAt,
		HoursUntilDue: hours,
		Day:           dayBucket(dueAt, now, until),
		Reminder:      reminderBucket(until),
		Label:         RelativeLabel(dueAt, now),
	}, true
}

func dayBucket(dueAt, now time.Time, until time.Duration) DayBucket {
	if until <= 0 {
		return DayOverdue
	}
	switch {
	case sameDay(dueAt, now):
		return DayToday
	case sameDay(dueAt, now.AddDate(0, 0, 1)):
		return DayTomorrow
	default:
		return DayFuture
	}
}

func reminderBucket(until time.Duration) ReminderBucket {
	switch {
	case until <= 0:
		return ReminderDueNow
	case until <= 24*time.Hour:
		return ReminderWithin24h
	case until <= 48*time.Hour:
		return ReminderWithin48h
	default:
		return ReminderNone
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RelativeLabel renders "Due in 2 hours", "Overdue by 3 days" or "Due now".
func RelativeLabel(dueAt, now time.Time) string {
	diff := dueAt.Sub(now)
	if diff < time.Second && diff > -time.Second {
		return "Due now"
	}
	distance := strings.TrimSpace(humanize.RelTime(dueAt, now, "", ""))
	if diff < 0 {
		return "Overdue by " + distance
	}
	return "Due in " + distance
}
