package reminder_test

import (
	"slices"
	"testing"
	"time"

	"taskit/internal/duestate"
	"taskit/internal/models/notification"
	"taskit/internal/models/task"
	"taskit/internal/reminder"
	"taskit/internal/timestamp"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)

func newTask(at time.Time, enabled, completed bool) *task.Task {
	return &task.Task{
		UUID:                 uuid.New(),
		UserID:               "user-1",
		Title:                "Pay rent",
		DueDate:              at.Format(task.DateLayout),
		DueTime:              at.Format(task.TimeLayout),
		NotificationsEnabled: enabled,
		Completed:            completed,
	}
}

func TestSynthesize_DueTodayInTwoHours(t *testing.T) {
	tk := newTask(now.Add(2*time.Hour), true, false)

	got := slices.Collect(reminder.Synthesize([]*task.Task{tk}, now))

	require.Len(t, got, 1)
	assert.Equal(t, "task-"+tk.UUID.String()+"-1day", got[0].ID)
	assert.Equal(t, tk.UUID.String(), got[0].TaskID)
	assert.Equal(t, "user-1", got[0].UserID)
	assert.False(t, got[0].Read)
	assert.True(t, got[0].Synthesized)
	assert.True(t, got[0].Timestamp.Time().Equal(now))
	assert.Contains(t, got[0].Message, "Pay rent")
}

func TestSynthesize_Buckets(t *testing.T) {
	tests := []struct {
		name   string
		at     time.Time
		suffix string
	}{
		{name: "overdue", at: now.Add(-time.Hour), suffix: "-due"},
		{name: "due exactly now", at: now, suffix: "-due"},
		{name: "exactly 24 hours", at: now.Add(24 * time.Hour), suffix: "-1day"},
		{name: "within 48 hours", at: now.Add(30 * time.Hour), suffix: "-2days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(reminder.Synthesize([]*task.Task{newTask(tt.at, true, false)}, now))
			require.Len(t, got, 1)
			assert.True(t, len(got[0].ID) > len(tt.suffix))
			assert.Equal(t, tt.suffix, got[0].ID[len(got[0].ID)-len(tt.suffix):])
		})
	}
}

func TestSynthesize_Filters(t *testing.T) {
	soon := now.Add(time.Hour)
	disabled := newTask(soon, false, false)
	completed := newTask(soon, true, true)
	far := newTask(now.AddDate(0, 0, 5), true, false)
	broken := &task.Task{UUID: uuid.New(), DueDate: "??", NotificationsEnabled: true}

	got := slices.Collect(reminder.Synthesize([]*task.Task{disabled, completed, far, broken}, now))
	assert.Empty(t, got)
}

func TestSynthesize_Idempotent(t *testing.T) {
	tasks := []*task.Task{
		newTask(now.Add(3*time.Hour), true, false),
		newTask(now.Add(-3*time.Hour), true, false),
		newTask(now.Add(40*time.Hour), true, false),
	}
	seq := reminder.Synthesize(tasks, now)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	third := slices.Collect(reminder.Synthesize(tasks, now))

	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestSynthesize_StopsEarly(t *testing.T) {
	tasks := []*task.Task{
		newTask(now.Add(time.Hour), true, false),
		newTask(now.Add(2*time.Hour), true, false),
	}
	count := 0
	for range reminder.Synthesize(tasks, now) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestMerge(t *testing.T) {
	older := notification.Notification{ID: "p1", Title: "New Task", Timestamp: timestamp.FromTime(now.Add(-2 * time.Hour)), Read: true}
	newer := notification.Notification{ID: "p2", Title: "Task Updated", Timestamp: timestamp.FromTime(now.Add(-time.Hour))}
	unknown := notification.Notification{ID: "p3", Title: "Legacy"}
	tk := newTask(now.Add(2*time.Hour), true, false)

	merged := reminder.Merge(
		[]notification.Notification{newer, older, unknown},
		reminder.Synthesize([]*task.Task{tk, tk}, now),
	)

	require.Len(t, merged, 4)
	assert.Equal(t, "task-"+tk.UUID.String()+"-1day", merged[0].ID)
	assert.Equal(t, "p2", merged[1].ID)
	assert.Equal(t, "p1", merged[2].ID)
	assert.Equal(t, "p3", merged[3].ID)
	assert.Equal(t, 3, reminder.UnreadCount(merged))
}

func TestMerge_NilSequence(t *testing.T) {
	merged := reminder.Merge(nil, nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
	assert.Equal(t, 0, reminder.UnreadCount(merged))
}

func TestIsReminderID(t *testing.T) {
	assert.True(t, reminder.IsReminderID(reminder.ID("abc", duestate.ReminderDueNow)))
	assert.False(t, reminder.IsReminderID("5b0c3c52-8d4e-4a57-9d4e-0f8f7f0ab001"))
}
