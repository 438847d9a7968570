package agent

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/tools"

	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
	"github.com/taskchat/taskchat/store/db/sqlite"
)

func newTestTaskService(t *testing.T) *service.TaskService {
	t.Helper()
	driver, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { _ = driver.Close() })
	return service.NewTaskService(store.New(driver))
}

func newTestRegistry(t *testing.T, userID string) map[string]tools.Tool {
	t.Helper()
	return NewTaskToolRegistry(newTestTaskService(t), userID)
}

func decodeEnvelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestEnvelope(t *testing.T) {
	out := decodeEnvelope(t, Envelope(map[string]any{"id": "abc"}, nil))
	require.Equal(t, true, out["success"])
	require.Equal(t, map[string]any{"id": "abc"}, out["data"])
	require.NotContains(t, out, "error")

	out = decodeEnvelope(t, Envelope(nil, errInvalidToolInput))
	require.Equal(t, false, out["success"])
	require.NotEmpty(t, out["error"])
	require.NotContains(t, out, "data")
}

func TestAddTaskTool(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, "alice")
	addTask := registry[ToolAddTask]

	t.Run("creates task", func(t *testing.T) {
		raw, err := addTask.Call(ctx, `{"title": "Buy milk", "description": "2%"}`)
		require.NoError(t, err)
		out := decodeEnvelope(t, raw)
		require.Equal(t, true, out["success"])
		data := out["data"].(map[string]any)
		require.NotEmpty(t, data["id"])
		require.Equal(t, "Buy milk", data["title"])
		require.Equal(t, "2%", data["description"])
		require.Equal(t, "pending", data["status"])
	})

	t.Run("malformed input", func(t *testing.T) {
		raw, err := addTask.Call(ctx, `not json`)
		require.NoError(t, err)
		require.Equal(t, false, decodeEnvelope(t, raw)["success"])
	})

	t.Run("validation failure", func(t *testing.T) {
		raw, err := addTask.Call(ctx, `{"title": "   "}`)
		require.NoError(t, err)
		out := decodeEnvelope(t, raw)
		require.Equal(t, false, out["success"])
		require.NotEmpty(t, out["error"])
	})
}

func TestListTasksTool(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, "alice")

	for _, title := range []string{"one", "two"} {
		raw, err := registry[ToolAddTask].Call(ctx, `{"title": "`+title+`"}`)
		require.NoError(t, err)
		require.Equal(t, true, decodeEnvelope(t, raw)["success"])
	}

	t.Run("defaults to all", func(t *testing.T) {
		raw, err := registry[ToolListTasks].Call(ctx, `{}`)
		require.NoError(t, err)
		out := decodeEnvelope(t, raw)
		require.Equal(t, true, out["success"])
		data := out["data"].(map[string]any)
		require.Equal(t, float64(2), data["count"])
		require.Len(t, data["tasks"], 2)
	})

	t.Run("bad filter collapses to error string", func(t *testing.T) {
		raw, err := registry[ToolListTasks].Call(ctx, `{"status": "done"}`)
		require.NoError(t, err)
		require.Equal(t, false, decodeEnvelope(t, raw)["success"])
	})
}

func TestCompleteAndDeleteTools(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, "alice")

	raw, err := registry[ToolAddTask].Call(ctx, `{"title": "Buy milk"}`)
	require.NoError(t, err)
	taskID := decodeEnvelope(t, raw)["data"].(map[string]any)["id"].(string)

	t.Run("complete", func(t *testing.T) {
		raw, err := registry[ToolCompleteTask].Call(ctx, `{"task_id": "`+taskID+`"}`)
		require.NoError(t, err)
		out := decodeEnvelope(t, raw)
		require.Equal(t, true, out["success"])
		require.Equal(t, "completed", out["data"].(map[string]any)["status"])
	})

	t.Run("unknown id fails closed", func(t *testing.T) {
		raw, err := registry[ToolCompleteTask].Call(ctx, `{"task_id": "nope"}`)
		require.NoError(t, err)
		require.Equal(t, false, decodeEnvelope(t, raw)["success"])
	})

	t.Run("delete", func(t *testing.T) {
		raw, err := registry[ToolDeleteTask].Call(ctx, `{"task_id": "`+taskID+`"}`)
		require.NoError(t, err)
		out := decodeEnvelope(t, raw)
		require.Equal(t, true, out["success"])
		require.Equal(t, taskID, out["data"].(map[string]any)["deleted_id"])

		raw, err = registry[ToolDeleteTask].Call(ctx, `{"task_id": "`+taskID+`"}`)
		require.NoError(t, err)
		require.Equal(t, false, decodeEnvelope(t, raw)["success"])
	})
}

func TestUpdateTaskTool(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, "alice")

	raw, err := registry[ToolAddTask].Call(ctx, `{"title": "Buy milk", "description": "2%"}`)
	require.NoError(t, err)
	taskID := decodeEnvelope(t, raw)["data"].(map[string]any)["id"].(string)

	t.Run("rename and clear description", func(t *testing.T) {
		raw, err := registry[ToolUpdateTask].Call(ctx, `{"task_id": "`+taskID+`", "title": "Buy oat milk", "description": ""}`)
		require.NoError(t, err)
		out := decodeEnvelope(t, raw)
		require.Equal(t, true, out["success"])
		data := out["data"].(map[string]any)
		require.Equal(t, "Buy oat milk", data["title"])
		require.Nil(t, data["description"])
	})

	t.Run("no fields", func(t *testing.T) {
		raw, err := registry[ToolUpdateTask].Call(ctx, `{"task_id": "`+taskID+`"}`)
		require.NoError(t, err)
		require.Equal(t, false, decodeEnvelope(t, raw)["success"])
	})
}

func TestToolOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	tasks := newTestTaskService(t)
	alice := NewTaskToolRegistry(tasks, "alice")
	mallory := NewTaskToolRegistry(tasks, "mallory")

	raw, err := alice[ToolAddTask].Call(ctx, `{"title": "secret"}`)
	require.NoError(t, err)
	taskID := decodeEnvelope(t, raw)["data"].(map[string]any)["id"].(string)

	raw, err = mallory[ToolDeleteTask].Call(ctx, `{"task_id": "`+taskID+`"}`)
	require.NoError(t, err)
	require.Equal(t, false, decodeEnvelope(t, raw)["success"])

	raw, err = mallory[ToolListTasks].Call(ctx, `{}`)
	require.NoError(t, err)
	data := decodeEnvelope(t, raw)["data"].(map[string]any)
	require.Equal(t, float64(0), data["count"])
}
