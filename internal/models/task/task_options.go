package task

type TaskOption func(*Task)

// Options built from empty values are nil; Apply skips them.

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description *string) TaskOption {
	if description == nil {
		return nil
	}
	return func(task *Task) {
		task.Description = *description
	}
}

func WithDueDate(dueDate string) TaskOption {
	if dueDate == "" {
		return nil
	}
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

func WithDueTime(dueTime string) TaskOption {
	if dueTime == "" {
		return nil
	}
	return func(task *Task) {
		task.DueTime = dueTime
	}
}

func WithTag(tag string) TaskOption {
	if tag == "" {
		return nil
	}
	return func(task *Task) {
		task.Tag = tag
	}
}

func WithNotifications(enabled *bool) TaskOption {
	if enabled == nil {
		return nil
	}
	return func(task *Task) {
		task.NotificationsEnabled = *enabled
	}
}

func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}
