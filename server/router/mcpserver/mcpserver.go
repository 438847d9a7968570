// Package mcpserver exposes the task tools over MCP streamable HTTP so
// external agents can manage tasks without going through the chat endpoint.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/taskchat/taskchat/agent"
	"github.com/taskchat/taskchat/server/profile"
	"github.com/taskchat/taskchat/service"
)

type Server struct {
	profile *profile.Profile
	tasks   *service.TaskService

	httpServer *server.StreamableHTTPServer
}

func NewServer(p *profile.Profile, tasks *service.TaskService) *Server {
	s := &Server{profile: p, tasks: tasks}

	mcpServer := server.NewMCPServer("taskchat", "1.0.0",
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(mcp.NewTool(agent.ToolAddTask,
		mcp.WithDescription("Create a new task for a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the task")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title, 1-200 characters")),
		mcp.WithString("description", mcp.Description("Optional details, up to 2000 characters")),
	), s.handler(agent.ToolAddTask))

	mcpServer.AddTool(mcp.NewTool(agent.ToolListTasks,
		mcp.WithDescription("List a user's tasks, optionally filtered by status."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the tasks")),
		mcp.WithString("status", mcp.Description("One of: all, pending, completed"),
			mcp.Enum("all", "pending", "completed")),
	), s.handler(agent.ToolListTasks))

	mcpServer.AddTool(mcp.NewTool(agent.ToolCompleteTask,
		mcp.WithDescription("Mark one of a user's tasks as completed."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the task")),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Id of the task to complete")),
	), s.handler(agent.ToolCompleteTask))

	mcpServer.AddTool(mcp.NewTool(agent.ToolDeleteTask,
		mcp.WithDescription("Permanently delete one of a user's tasks."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the task")),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Id of the task to delete")),
	), s.handler(agent.ToolDeleteTask))

	mcpServer.AddTool(mcp.NewTool(agent.ToolUpdateTask,
		mcp.WithDescription("Update the title or description of a user's task."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the task")),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Id of the task to update")),
		mcp.WithString("title", mcp.Description("New title, 1-200 characters")),
		mcp.WithString("description", mcp.Description("New description; empty string clears it")),
	), s.handler(agent.ToolUpdateTask))

	s.httpServer = server.NewStreamableHTTPServer(mcpServer)
	return s
}

// handler adapts an MCP call to the shared task tool adapter. The user_id
// argument selects the tool registry; the remaining arguments are passed
// through as the tool's JSON input.
func (s *Server) handler(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		userID, _ := args["user_id"].(string)
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return mcp.NewToolResultError("user_id is required"), nil
		}

		input := make(map[string]any, len(args))
		for k, v := range args {
			if k == "user_id" {
				continue
			}
			input[k] = v
		}
		raw, err := json.Marshal(input)
		if err != nil {
			return mcp.NewToolResultError("invalid tool arguments"), nil
		}

		slog.Info("mcp tool call", "tool", toolName, "user", userID)
		registry := agent.NewTaskToolRegistry(s.tasks, userID)
		out, err := registry[toolName].Call(ctx, string(raw))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// Start blocks serving MCP over streamable HTTP on the configured address.
func (s *Server) Start() error {
	return s.httpServer.Start(s.profile.MCPAddr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
