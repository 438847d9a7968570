package store

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	return s == TaskPending || s == TaskCompleted
}

// Task is a single to-do item owned by one user.
type Task struct {
	ID          int32
	UID         string
	UserID      string
	Title       string
	Description *string // nil when the task has no description
	Status      TaskStatus
	CreatedTs   int64
	UpdatedTs   int64
}

// FindTask filters for ListTasks / GetTask.
type FindTask struct {
	UID    *string
	UserID *string
	Status *TaskStatus
}

// UpdateTask carries fields accepted by UpdateTask. UID and UserID select the
// row; a nil optional field is left untouched. A supplied empty Description
// clears the column to NULL.
type UpdateTask struct {
	UID         string
	UserID      string
	Title       *string
	Description *string
	Status      *TaskStatus
}

// DeleteTask selects the row for DeleteTask.
type DeleteTask struct {
	UID    string
	UserID string
}
