// Package reminder derives due-date notifications from tasks and merges them
// with notifications that were persisted by the store.
package reminder

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"taskit/internal/duestate"
	"taskit/internal/models/notification"
	"taskit/internal/models/task"
	"taskit/internal/timestamp"
)

func ID(taskID string, bucket duestate.ReminderBucket) string {
	return fmt.Sprintf("%s%s-%s", idPrefix, taskID, bucket.Label())
}

const idPrefix = "task-"

// IsReminderID reports whether id was produced by ID.
func IsReminderID(id string) bool {
	return strings.HasPrefix(id, idPrefix)
}

// Synthesize yields at most one notification per incomplete task that has
// notifications enabled and is within 48 hours of its due instant. The
// sequence is computed from scratch each time it is ranged over.
func Synthesize(tasks []*task.Task, now time.Time) iter.Seq[notification.Notification] {
	return func(yield func(notification.Notification) bool) {
		for _, t := range tasks {
			if t.Completed || !t.NotificationsEnabled {
				continue
			}
			c, ok := duestate.Classify(t, now)
			if !ok || c.Reminder == duestate.ReminderNone {
				continue
			}
			if !yield(build(t, c, now)) {
				return
			}
		}
	}
}

func build(t *task.Task, c duestate.Classification, now time.Time) notification.Notification {
	taskID := t.UUID.String()
	title, message := text(t, c)
	return notification.Notification{
		ID:          ID(taskID, c.Reminder),
		UserID:      t.UserID,
		TaskID:      taskID,
		Title:       title,
		Message:     message,
		Timestamp:   timestamp.FromTime(now),
		Synthesized: true,
	}
}

func text(t *task.Task, c duestate.Classification) (string, string) {
	switch c.Reminder {
	case duestate.ReminderDueNow:
		return "Task Overdue", fmt.Sprintf("Task %q is overdue (%s)", t.Title, c.Label)
	case duestate.ReminderWithin24h:
		return "Task Due Soon", fmt.Sprintf("Task %q is due within 24 hours (%s)", t.Title, c.Label)
	default:
		return "Upcoming Task", fmt.Sprintf("Task %q is due within 2 days (%s)", t.Title, c.Label)
	}
}

// Merge appends synthesized entries after persisted ones, drops repeated ids
// keeping the first, and re-sorts by timestamp, newest first. Entries with an
// unknown timestamp sink to the end.
func Merge(persisted []notification.Notification, synthesized iter.Seq[notification.Notification]) []notification.Notification {
	seen := make(map[string]struct{}, len(persisted))
	merged := make([]notification.Notification, 0, len(persisted))

	add := func(n notification.Notification) {
		if _, dup := seen[n.ID]; dup {
			return
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}

	for _, n := range persisted {
		add(n)
	}
	if synthesized != nil {
		for n := range synthesized {
			add(n)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i].Timestamp, merged[j].Timestamp
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return a.Time().After(b.Time())
	})
	return merged
}

func UnreadCount(list []notification.Notification) int {
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count
}
