package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/taskchat/taskchat/store"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// Task list filters.
const (
	FilterAll       = "all"
	FilterPending   = "pending"
	FilterCompleted = "completed"
)

// TaskService exposes the five task operations with validation and per-user
// ownership enforcement. Every operation runs as a single transaction.
type TaskService struct {
	store *store.Store
}

func NewTaskService(st *store.Store) *TaskService {
	return &TaskService{store: st}
}

// Add creates a pending task. The title must be 1-200 characters after
// trimming; the description, when given, at most 2000.
func (s *TaskService) Add(ctx context.Context, userID, title, description string) (*store.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.Wrap(ErrValidation, "title must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, errors.Wrapf(ErrValidation, "title must be at most %d characters", maxTitleLength)
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, errors.Wrapf(ErrValidation, "description must be at most %d characters", maxDescriptionLength)
	}

	create := &store.Task{
		UID:    shortuuid.New(),
		UserID: userID,
		Title:  title,
		Status: store.TaskPending,
	}
	if description != "" {
		create.Description = &description
	}
	task, err := s.store.CreateTask(ctx, create)
	if err != nil {
		slog.Error("create task failed", "user", userID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "create task")
	}
	return task, nil
}

// List returns the user's tasks matching the filter, newest first.
func (s *TaskService) List(ctx context.Context, userID, filter string) ([]*store.Task, error) {
	find := &store.FindTask{UserID: &userID}
	switch filter {
	case FilterAll:
	case FilterPending:
		status := store.TaskPending
		find.Status = &status
	case FilterCompleted:
		status := store.TaskCompleted
		find.Status = &status
	default:
		return nil, errors.Wrapf(ErrValidation, "status filter must be one of %s, %s, %s",
			FilterAll, FilterPending, FilterCompleted)
	}
	tasks, err := s.store.ListTasks(ctx, find)
	if err != nil {
		slog.Error("list tasks failed", "user", userID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "list tasks")
	}
	return tasks, nil
}

// Complete marks the task as completed. A task owned by another user is
// indistinguishable from a nonexistent one.
func (s *TaskService) Complete(ctx context.Context, userID, taskUID string) (*store.Task, error) {
	status := store.TaskCompleted
	task, err := s.store.UpdateTask(ctx, &store.UpdateTask{
		UID:    taskUID,
		UserID: userID,
		Status: &status,
	})
	if err != nil {
		slog.Error("complete task failed", "user", userID, "task", taskUID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "complete task")
	}
	if task == nil {
		return nil, errors.Wrap(ErrNotFound, "task not found")
	}
	return task, nil
}

// Delete permanently removes the task and returns its uid.
func (s *TaskService) Delete(ctx context.Context, userID, taskUID string) (string, error) {
	deleted, err := s.store.DeleteTask(ctx, &store.DeleteTask{UID: taskUID, UserID: userID})
	if err != nil {
		slog.Error("delete task failed", "user", userID, "task", taskUID, "err", err)
		return "", errors.Wrap(ErrUnavailable, "delete task")
	}
	if !deleted {
		return "", errors.Wrap(ErrNotFound, "task not found")
	}
	return taskUID, nil
}

// Update changes the title and/or description. At least one field must be
// supplied; an explicitly empty description clears the field.
func (s *TaskService) Update(ctx context.Context, userID, taskUID string, title, description *string) (*store.Task, error) {
	if title == nil && description == nil {
		return nil, errors.Wrap(ErrValidation, "at least one of title or description is required")
	}
	update := &store.UpdateTask{UID: taskUID, UserID: userID}
	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return nil, errors.Wrap(ErrValidation, "title must not be empty")
		}
		if utf8.RuneCountInString(trimmed) > maxTitleLength {
			return nil, errors.Wrapf(ErrValidation, "title must be at most %d characters", maxTitleLength)
		}
		update.Title = &trimmed
	}
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
			return nil, errors.Wrapf(ErrValidation, "description must be at most %d characters", maxDescriptionLength)
		}
		update.Description = &trimmed
	}

	task, err := s.store.UpdateTask(ctx, update)
	if err != nil {
		slog.Error("update task failed", "user", userID, "task", taskUID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "update task")
	}
	if task == nil {
		return nil, errors.Wrap(ErrNotFound, "task not found")
	}
	return task, nil
}
