package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v5"

	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
)

const (
	// maxChatMessageLength bounds a single user turn.
	maxChatMessageLength = 4000

	// maxAutoTitleLength is the cut point for titles derived from the
	// first message of a new conversation.
	maxAutoTitleLength = 64
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Response       string                 `json:"response"`
	ToolCalls      []store.ToolCallRecord `json:"tool_calls"`
}

// handleChat runs one conversational turn: resolve the conversation, persist
// the user message, run the agent, persist its answer, and return it.
func (s *APIV1Service) handleChat(c *echo.Context) error {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", "user id is required")
	}

	if !s.chatLimiter.allow(userID) {
		return problem(c, http.StatusTooManyRequests, problemRateLimited, "Too many requests", "chat rate limit exceeded, slow down")
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", "request body must be JSON")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", "message must not be blank")
	}
	if utf8.RuneCountInString(message) > maxChatMessageLength {
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", "message exceeds maximum length")
	}

	ctx := c.Request().Context()

	// Resolve or create the conversation. A supplied id that does not exist
	// or belongs to someone else reads as not found.
	var conv *store.Conversation
	var history []service.HistoryEntry
	if req.ConversationID != "" {
		var err error
		conv, err = s.Chat.GetConversation(ctx, req.ConversationID, userID)
		if err != nil {
			return serviceProblem(c, err)
		}
		history, err = s.Chat.HistoryForAgent(ctx, conv.ID)
		if err != nil {
			return serviceProblem(c, err)
		}
	} else {
		title := autoTitle(message)
		var err error
		conv, err = s.Chat.CreateConversation(ctx, userID, &title)
		if err != nil {
			return serviceProblem(c, err)
		}
	}

	if _, err := s.Chat.AppendMessage(ctx, conv.ID, store.RoleUser, message, nil); err != nil {
		return serviceProblem(c, err)
	}

	agentCtx, cancel := context.WithTimeout(ctx, s.Profile.AgentTimeout)
	defer cancel()
	result, err := s.Agent.Run(agentCtx, userID, message, history)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return problem(c, http.StatusServiceUnavailable, problemTimeout, "Agent timed out", "the assistant took too long to respond, try again")
		}
		slog.Error("agent run failed", "user", userID, "conversation", conv.UID, "err", err)
		return problem(c, http.StatusInternalServerError, problemInternal, "Internal error", "the assistant failed to process the message")
	}

	toolCalls := make([]store.ToolCallRecord, 0, len(result.ToolCalls))
	for _, inv := range result.ToolCalls {
		toolCalls = append(toolCalls, store.ToolCallRecord{
			ToolName:  inv.ToolName,
			Arguments: inv.Arguments,
			Result:    inv.Result,
		})
	}

	if _, err := s.Chat.AppendMessage(ctx, conv.ID, store.RoleAssistant, result.FinalText, toolCalls); err != nil {
		return serviceProblem(c, err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		ConversationID: conv.UID,
		Response:       result.FinalText,
		ToolCalls:      toolCalls,
	})
}

// autoTitle derives a conversation title from its first message.
func autoTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(title) <= maxAutoTitleLength {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxAutoTitleLength-3])) + "..."
}
