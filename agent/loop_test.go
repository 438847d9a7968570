package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat/service"
)

// completionStub serves scripted chat-completion responses and records what
// the agent sent.
type completionStub struct {
	t         *testing.T
	responses []string
	requests  []map[string]any
}

func (s *completionStub) handler(w http.ResponseWriter, r *http.Request) {
	require.Equal(s.t, "Bearer test-key", r.Header.Get("Authorization"))
	var body map[string]any
	require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))
	s.requests = append(s.requests, body)

	require.NotEmpty(s.t, s.responses, "stub ran out of scripted responses")
	resp := s.responses[0]
	s.responses = s.responses[1:]
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(resp))
}

func newStubAgent(t *testing.T, tasks *service.TaskService, responses ...string) (*LLMAgent, *completionStub) {
	t.Helper()
	stub := &completionStub{t: t, responses: responses}
	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)
	return NewLLMAgent(tasks, srv.URL, "test-model", "test-key"), stub
}

func toolCallResponse(callID, name, arguments string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"message": map[string]any{
				"role":    "assistant",
				"content": "",
				"tool_calls": []map[string]any{{
					"id":   callID,
					"type": "function",
					"function": map[string]any{
						"name":      name,
						"arguments": arguments,
					},
				}},
			},
		}},
	})
	return string(raw)
}

func finalResponse(content string) string {
	raw, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"message": map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(raw)
}

func TestAgentRunToolRoundTrip(t *testing.T) {
	ctx := context.Background()
	tasks := newTestTaskService(t)
	ag, stub := newStubAgent(t, tasks,
		toolCallResponse("call_1", ToolAddTask, `{"title": "Buy milk"}`),
		finalResponse("Added \"Buy milk\" to your list."),
	)

	result, err := ag.Run(ctx, "alice", "Add a task to buy milk", nil)
	require.NoError(t, err)
	require.Equal(t, `Added "Buy milk" to your list.`, result.FinalText)

	require.Len(t, result.ToolCalls, 1)
	inv := result.ToolCalls[0]
	require.Equal(t, ToolAddTask, inv.ToolName)
	require.Equal(t, "Buy milk", inv.Arguments["title"])
	require.Equal(t, true, inv.Result["success"])

	// The tool actually wrote through to the store.
	list, err := tasks.List(ctx, "alice", service.FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Buy milk", list[0].Title)

	// First request carried the tool definitions and the user turn.
	require.Len(t, stub.requests, 2)
	require.Equal(t, "test-model", stub.requests[0]["model"])
	require.Len(t, stub.requests[0]["tools"], 5)

	// Second request replayed the tool result back to the model.
	messages := stub.requests[1]["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	require.Equal(t, "tool", last["role"])
	require.Equal(t, "call_1", last["tool_call_id"])
}

func TestAgentRunReplaysHistory(t *testing.T) {
	ctx := context.Background()
	ag, stub := newStubAgent(t, newTestTaskService(t), finalResponse("Sure."))

	history := []service.HistoryEntry{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
	}
	result, err := ag.Run(ctx, "alice", "what did I just say?", history)
	require.NoError(t, err)
	require.Equal(t, "Sure.", result.FinalText)
	require.Empty(t, result.ToolCalls)

	messages := stub.requests[0]["messages"].([]any)
	require.Len(t, messages, 4) // system + 2 history + current turn
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "hello", messages[1].(map[string]any)["content"])
	require.Equal(t, "hi there", messages[2].(map[string]any)["content"])
	require.Equal(t, "what did I just say?", messages[3].(map[string]any)["content"])
}

func TestAgentRunDedupsRepeatedCallIDs(t *testing.T) {
	ctx := context.Background()
	tasks := newTestTaskService(t)

	duplicated, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{
			"message": map[string]any{
				"role":    "assistant",
				"content": "",
				"tool_calls": []map[string]any{
					{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      ToolAddTask,
							"arguments": `{"title": "once"}`,
						},
					},
					{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      ToolAddTask,
							"arguments": `{"title": "once"}`,
						},
					},
				},
			},
		}},
	})
	ag, _ := newStubAgent(t, tasks, string(duplicated), finalResponse("done"))

	result, err := ag.Run(ctx, "alice", "add once", nil)
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)

	list, err := tasks.List(ctx, "alice", service.FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAgentRunUnknownTool(t *testing.T) {
	ctx := context.Background()
	ag, _ := newStubAgent(t, newTestTaskService(t),
		toolCallResponse("call_1", "launch_rocket", `{}`),
		finalResponse("I can't do that."),
	)

	result, err := ag.Run(ctx, "alice", "launch the rocket", nil)
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	require.Equal(t, "launch_rocket", result.ToolCalls[0].ToolName)
	require.Equal(t, false, result.ToolCalls[0].Result["success"])
}

func TestAgentRunEndpointFailure(t *testing.T) {
	ctx := context.Background()
	tasks := newTestTaskService(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	ag := NewLLMAgent(tasks, srv.URL, "test-model", "test-key")
	_, err := ag.Run(ctx, "alice", "hello", nil)
	require.Error(t, err)
}
