package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/tools"

	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
)

// Tool names exposed to the agent and over MCP.
const (
	ToolAddTask      = "add_task"
	ToolListTasks    = "list_tasks"
	ToolCompleteTask = "complete_task"
	ToolDeleteTask   = "delete_task"
	ToolUpdateTask   = "update_task"
)

// NewTaskToolRegistry builds the per-request tool registry. The user id is
// captured per constructor call so no request state leaks across users.
func NewTaskToolRegistry(tasks *service.TaskService, userID string) map[string]tools.Tool {
	return map[string]tools.Tool{
		ToolAddTask:      newAddTaskTool(tasks, userID),
		ToolListTasks:    newListTasksTool(tasks, userID),
		ToolCompleteTask: newCompleteTaskTool(tasks, userID),
		ToolDeleteTask:   newDeleteTaskTool(tasks, userID),
		ToolUpdateTask:   newUpdateTaskTool(tasks, userID),
	}
}

// Envelope returns the uniform tool result: {"success":true,"data":...} or
// {"success":false,"error":...}. The error branch carries one user-facing
// string; validation, not-found, and unavailable are not told apart here.
func Envelope(data any, err error) string {
	var payload map[string]any
	if err != nil {
		payload = map[string]any{"success": false, "error": err.Error()}
	} else {
		payload = map[string]any{"success": true, "data": data}
	}
	raw, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return `{"success":false,"error":"internal serialization failure"}`
	}
	return string(raw)
}

// TaskPayload serializes a task for the tool data field.
func TaskPayload(t *store.Task) map[string]any {
	var description any
	if t.Description != nil {
		description = *t.Description
	}
	return map[string]any{
		"id":          t.UID,
		"title":       t.Title,
		"description": description,
		"status":      string(t.Status),
		"created_at":  time.Unix(t.CreatedTs, 0).UTC().Format(time.RFC3339),
		"updated_at":  time.Unix(t.UpdatedTs, 0).UTC().Format(time.RFC3339),
	}
}

// ─── add_task ────────────────────────────────────────────────────────────────

type addTaskTool struct {
	tasks  *service.TaskService
	userID string
}

func newAddTaskTool(tasks *service.TaskService, userID string) tools.Tool {
	return &addTaskTool{tasks: tasks, userID: userID}
}

func (t *addTaskTool) Name() string { return ToolAddTask }
func (t *addTaskTool) Description() string {
	return "Create a new task. Input is a JSON object with `title` (string, 1-200 chars) and optional `description` (string, max 2000 chars)."
}

func (t *addTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return Envelope(nil, errInvalidToolInput), nil
	}
	task, err := t.tasks.Add(ctx, t.userID, payload.Title, payload.Description)
	if err != nil {
		slog.Warn("tool call failed", "tool", t.Name(), "user", t.userID, "err", err)
		return Envelope(nil, err), nil
	}
	return Envelope(TaskPayload(task), nil), nil
}

// ─── list_tasks ──────────────────────────────────────────────────────────────

type listTasksTool struct {
	tasks  *service.TaskService
	userID string
}

func newListTasksTool(tasks *service.TaskService, userID string) tools.Tool {
	return &listTasksTool{tasks: tasks, userID: userID}
}

func (t *listTasksTool) Name() string { return ToolListTasks }
func (t *listTasksTool) Description() string {
	return "List the user's tasks. Input is a JSON object with optional `status` filter: \"all\" (default), \"pending\", or \"completed\"."
}

func (t *listTasksTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return Envelope(nil, errInvalidToolInput), nil
	}
	if payload.Status == "" {
		payload.Status = service.FilterAll
	}
	list, err := t.tasks.List(ctx, t.userID, payload.Status)
	if err != nil {
		slog.Warn("tool call failed", "tool", t.Name(), "user", t.userID, "err", err)
		return Envelope(nil, err), nil
	}
	payloads := make([]map[string]any, 0, len(list))
	for _, task := range list {
		payloads = append(payloads, TaskPayload(task))
	}
	return Envelope(map[string]any{"tasks": payloads, "count": len(payloads)}, nil), nil
}

// ─── complete_task ───────────────────────────────────────────────────────────

type completeTaskTool struct {
	tasks  *service.TaskService
	userID string
}

func newCompleteTaskTool(tasks *service.TaskService, userID string) tools.Tool {
	return &completeTaskTool{tasks: tasks, userID: userID}
}

func (t *completeTaskTool) Name() string { return ToolCompleteTask }
func (t *completeTaskTool) Description() string {
	return "Mark a task as completed. Input is a JSON object with `task_id` (string)."
}

func (t *completeTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return Envelope(nil, errInvalidToolInput), nil
	}
	task, err := t.tasks.Complete(ctx, t.userID, payload.TaskID)
	if err != nil {
		slog.Warn("tool call failed", "tool", t.Name(), "user", t.userID, "err", err)
		return Envelope(nil, err), nil
	}
	return Envelope(TaskPayload(task), nil), nil
}

// ─── delete_task ─────────────────────────────────────────────────────────────

type deleteTaskTool struct {
	tasks  *service.TaskService
	userID string
}

func newDeleteTaskTool(tasks *service.TaskService, userID string) tools.Tool {
	return &deleteTaskTool{tasks: tasks, userID: userID}
}

func (t *deleteTaskTool) Name() string { return ToolDeleteTask }
func (t *deleteTaskTool) Description() string {
	return "Permanently delete a task. Input is a JSON object with `task_id` (string)."
}

func (t *deleteTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return Envelope(nil, errInvalidToolInput), nil
	}
	deletedID, err := t.tasks.Delete(ctx, t.userID, payload.TaskID)
	if err != nil {
		slog.Warn("tool call failed", "tool", t.Name(), "user", t.userID, "err", err)
		return Envelope(nil, err), nil
	}
	return Envelope(map[string]any{"deleted_id": deletedID}, nil), nil
}

// ─── update_task ─────────────────────────────────────────────────────────────

type updateTaskTool struct {
	tasks  *service.TaskService
	userID string
}

func newUpdateTaskTool(tasks *service.TaskService, userID string) tools.Tool {
	return &updateTaskTool{tasks: tasks, userID: userID}
}

func (t *updateTaskTool) Name() string { return ToolUpdateTask }
func (t *updateTaskTool) Description() string {
	return "Update a task's title and/or description. Input is a JSON object with `task_id` (string) plus `title` and/or `description`. Pass an empty description to clear it."
}

func (t *updateTaskTool) Call(ctx context.Context, input string) (string, error) {
	var payload struct {
		TaskID      string  `json:"task_id"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return Envelope(nil, errInvalidToolInput), nil
	}
	task, err := t.tasks.Update(ctx, t.userID, payload.TaskID, payload.Title, payload.Description)
	if err != nil {
		slog.Warn("tool call failed", "tool", t.Name(), "user", t.userID, "err", err)
		return Envelope(nil, err), nil
	}
	return Envelope(TaskPayload(task), nil), nil
}
