package notification

import (
	"taskit/internal/timestamp"
)

type Notification struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	TaskID      string          `json:"task_id,omitempty"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Timestamp   timestamp.Value `json:"timestamp"`
	Read        bool            `json:"read"`
	Synthesized bool            `json:"synthesized"`
}
