package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/taskchat/taskchat/service"
)

// maxAgentRounds caps the number of tool-use iterations per request.
const maxAgentRounds = 6

// LLMAgent drives an OpenAI-compatible function-calling loop against a
// chat-completions endpoint and dispatches tool calls locally.
type LLMAgent struct {
	tasks   *service.TaskService
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewLLMAgent builds the production agent. baseURL points at an
// OpenAI-compatible API root, e.g. https://openrouter.ai/api/v1.
func NewLLMAgent(tasks *service.TaskService, baseURL, model, apiKey string) *LLMAgent {
	return &LLMAgent{
		tasks:   tasks,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  http.DefaultClient,
	}
}

type completionToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type completionMessage struct {
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	ToolCalls []completionToolCall `json:"tool_calls"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Run executes the agent loop. The context deadline bounds the whole
// invocation, including every completion round trip and tool call.
func (a *LLMAgent) Run(ctx context.Context, userID, message string, history []service.HistoryEntry) (*RunResult, error) {
	registry := NewTaskToolRegistry(a.tasks, userID)
	toolDefs := taskToolDefs()

	messages := []map[string]any{
		{"role": "system", "content": buildSystemPrompt(time.Now())},
	}
	for _, h := range history {
		messages = append(messages, map[string]any{"role": h.Role, "content": h.Content})
	}
	messages = append(messages, map[string]any{"role": "user", "content": message})

	slog.Info("agent run", "user", userID, "model", a.model, "history", len(history))

	result := &RunResult{}
	for round := 0; round < maxAgentRounds; round++ {
		msg, err := a.complete(ctx, messages, toolDefs)
		if err != nil {
			return nil, err
		}

		// No tool calls means the model produced its final answer.
		if len(msg.ToolCalls) == 0 {
			result.FinalText = msg.Content
			break
		}

		messages = append(messages, map[string]any{
			"role":       "assistant",
			"content":    msg.Content,
			"tool_calls": msg.ToolCalls,
		})

		// Some models repeat the same tool_call_id within one response.
		seen := make(map[string]bool)
		for _, tc := range msg.ToolCalls {
			if seen[tc.ID] {
				continue
			}
			seen[tc.ID] = true

			name := tc.Function.Name
			input := tc.Function.Arguments
			slog.Info("agent tool call", "tool", name, "user", userID)

			var output string
			if tool, ok := registry[name]; ok {
				output, err = tool.Call(ctx, input)
				if err != nil {
					output = Envelope(nil, err)
				}
			} else {
				output = Envelope(nil, errors.Errorf("unknown tool %q", name))
			}

			result.ToolCalls = append(result.ToolCalls, ToolInvocation{
				ToolName:  name,
				Arguments: parseJSONObject(input),
				Result:    parseJSONObject(output),
			})
			messages = append(messages, map[string]any{
				"role":         "tool",
				"tool_call_id": tc.ID,
				"content":      output,
			})
		}
	}

	slog.Info("agent finished", "user", userID, "tool_calls", len(result.ToolCalls))
	return result, nil
}

// complete makes one chat-completions request and returns the first choice.
func (a *LLMAgent) complete(ctx context.Context, messages []map[string]any, toolDefs []map[string]any) (*completionMessage, error) {
	body, err := json.Marshal(map[string]any{
		"model":    a.model,
		"messages": messages,
		"tools":    toolDefs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build completion request")
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "completion request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Error("completion request rejected", "status", resp.StatusCode, "body", string(raw))
		return nil, errors.Errorf("llm endpoint returned status %d", resp.StatusCode)
	}

	apiResp := &completionResponse{}
	if err := json.NewDecoder(resp.Body).Decode(apiResp); err != nil {
		return nil, errors.Wrap(err, "decode completion response")
	}
	if len(apiResp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}
	return &apiResp.Choices[0].Message, nil
}

// parseJSONObject decodes a JSON object string, falling back to {"raw": s}
// for anything that is not an object.
func parseJSONObject(s string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return map[string]any{"raw": s}
	}
	return m
}
