// Package agent turns natural-language requests into task operations. The
// orchestrator depends only on the Agent interface; the production
// implementation drives an OpenAI-compatible function-calling loop.
package agent

import (
	"context"

	"github.com/taskchat/taskchat/service"
)

// ToolInvocation is one tool call the agent made, paired with its result.
type ToolInvocation struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}

// RunResult is the outcome of one agent invocation.
type RunResult struct {
	FinalText string
	ToolCalls []ToolInvocation
}

// Agent produces a final reply plus the ordered tool invocations it made.
type Agent interface {
	Run(ctx context.Context, userID, message string, history []service.HistoryEntry) (*RunResult, error)
}
