package agent

import "github.com/pkg/errors"

var errInvalidToolInput = errors.New("could not parse tool input")

// taskToolDefs are the OpenAI-compatible function definitions sent to the LLM
// with every completion request. They mirror the registry in tools.go.
func taskToolDefs() []map[string]any {
	return []map[string]any{
		buildToolDef(ToolAddTask, "Create a new task for the user.", map[string]any{
			"title":       map[string]any{"type": "string", "description": "Task title, 1-200 characters"},
			"description": map[string]any{"type": "string", "description": "Optional details, up to 2000 characters"},
		}, []string{"title"}),
		buildToolDef(ToolListTasks, "List the user's tasks, optionally filtered by status.", map[string]any{
			"status": map[string]any{"type": "string", "enum": []string{"all", "pending", "completed"}, "description": "Filter, defaults to all"},
		}, []string{}),
		buildToolDef(ToolCompleteTask, "Mark one of the user's tasks as completed.", map[string]any{
			"task_id": map[string]any{"type": "string", "description": "Id of the task to complete"},
		}, []string{"task_id"}),
		buildToolDef(ToolDeleteTask, "Permanently delete one of the user's tasks.", map[string]any{
			"task_id": map[string]any{"type": "string", "description": "Id of the task to delete"},
		}, []string{"task_id"}),
		buildToolDef(ToolUpdateTask, "Change a task's title and/or description. An empty description clears it.", map[string]any{
			"task_id":     map[string]any{"type": "string", "description": "Id of the task to update"},
			"title":       map[string]any{"type": "string", "description": "New title, 1-200 characters"},
			"description": map[string]any{"type": "string", "description": "New description, empty string to clear"},
		}, []string{"task_id"}),
	}
}

// buildToolDef constructs an OpenAI-compatible tool definition map.
func buildToolDef(name, description string, properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        name,
			"description": description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}
