package services

// TaskStatus enumerates the lifecycle states of a server-side background task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the task can no longer change state.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	default:
		return false
	}
}

// Task represents a unit of asynchronous work tracked by the server
// (file import, format conversion, DRM processing).
//
// The client only ever reads tasks; once a task reaches a terminal status the
// server no longer mutates it. Metadata is free-form and task-type specific —
// import tasks put the created book ids under "book_ids".
type Task struct {
	ID           int64          `json:"id"`
	Status       TaskStatus     `json:"status"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
