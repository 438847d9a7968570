package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/taskchat/taskchat/store"
)

type conversationResponse struct {
	ConversationID string  `json:"conversation_id"`
	Title          *string `json:"title"`
	MessageCount   int64   `json:"message_count,omitempty"`
	CreatedTs      int64   `json:"created_ts"`
	UpdatedTs      int64   `json:"updated_ts"`
}

type messageResponse struct {
	MessageID string                 `json:"message_id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	ToolCalls []store.ToolCallRecord `json:"tool_calls,omitempty"`
	CreatedTs int64                  `json:"created_ts"`
}

type conversationDetailResponse struct {
	conversationResponse
	Messages []messageResponse `json:"messages"`
}

type updateConversationRequest struct {
	Title string `json:"title"`
}

func (s *APIV1Service) listConversations(c *echo.Context) error {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", "user id is required")
	}
	summaries, err := s.Chat.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return serviceProblem(c, err)
	}
	resp := make([]conversationResponse, 0, len(summaries))
	for _, sum := range summaries {
		resp = append(resp, conversationResponse{
			ConversationID: sum.Conversation.UID,
			Title:          sum.Conversation.Title,
			MessageCount:   sum.MessageCount,
			CreatedTs:      sum.Conversation.CreatedTs,
			UpdatedTs:      sum.Conversation.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) getConversation(c *echo.Context) error {
	userID := strings.TrimSpace(c.Param("userID"))
	uid := c.Param("conversationID")
	ctx := c.Request().Context()

	conv, err := s.Chat.GetConversation(ctx, uid, userID)
	if err != nil {
		return serviceProblem(c, err)
	}
	messages, err := s.Chat.Messages(ctx, uid, userID)
	if err != nil {
		return serviceProblem(c, err)
	}

	resp := conversationDetailResponse{
		conversationResponse: conversationResponse{
			ConversationID: conv.UID,
			Title:          conv.Title,
			CreatedTs:      conv.CreatedTs,
			UpdatedTs:      conv.UpdatedTs,
		},
		Messages: make([]messageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, messageResponse{
			MessageID: m.UID,
			Role:      string(m.Role),
			Content:   m.Content,
			ToolCalls: m.ToolCalls,
			CreatedTs: m.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) updateConversation(c *echo.Context) error {
	userID := strings.TrimSpace(c.Param("userID"))
	uid := c.Param("conversationID")

	var req updateConversationRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return problem(c, http.StatusBadRequest, problemValidation, "Invalid request", "title is required")
	}
	conv, err := s.Chat.UpdateConversationTitle(c.Request().Context(), uid, userID, strings.TrimSpace(req.Title))
	if err != nil {
		return serviceProblem(c, err)
	}
	return c.JSON(http.StatusOK, conversationResponse{
		ConversationID: conv.UID,
		Title:          conv.Title,
		CreatedTs:      conv.CreatedTs,
		UpdatedTs:      conv.UpdatedTs,
	})
}

func (s *APIV1Service) deleteConversation(c *echo.Context) error {
	userID := strings.TrimSpace(c.Param("userID"))
	uid := c.Param("conversationID")

	if err := s.Chat.DeleteConversation(c.Request().Context(), uid, userID); err != nil {
		return serviceProblem(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
