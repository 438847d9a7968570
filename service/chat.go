package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/taskchat/taskchat/store"
)

// HistoryEntry is the minimal message shape replayed to the agent.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatService exposes conversation and message operations.
type ChatService struct {
	store *store.Store
}

func NewChatService(st *store.Store) *ChatService {
	return &ChatService{store: st}
}

// CreateConversation starts a new conversation owned by userID.
func (s *ChatService) CreateConversation(ctx context.Context, userID string, title *string) (*store.Conversation, error) {
	conversation, err := s.store.CreateConversation(ctx, &store.Conversation{
		UID:    uuid.New().String(),
		UserID: userID,
		Title:  title,
	})
	if err != nil {
		slog.Error("create conversation failed", "user", userID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "create conversation")
	}
	return conversation, nil
}

// GetConversation fetches a conversation, verifying ownership. Absence and
// ownership mismatch are both reported as not found.
func (s *ChatService) GetConversation(ctx context.Context, conversationUID, userID string) (*store.Conversation, error) {
	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{
		UID:    &conversationUID,
		UserID: &userID,
	})
	if err != nil {
		slog.Error("get conversation failed", "user", userID, "conversation", conversationUID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "get conversation")
	}
	if conversation == nil {
		return nil, errors.Wrap(ErrNotFound, "conversation not found")
	}
	return conversation, nil
}

// ListConversations returns the user's conversations with message counts,
// most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	summaries, err := s.store.ListConversationSummaries(ctx, userID)
	if err != nil {
		slog.Error("list conversations failed", "user", userID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "list conversations")
	}
	return summaries, nil
}

// AppendMessage persists a message and bumps the parent conversation's
// updated_ts in the same transaction. Ownership is not checked here; callers
// holding an externally supplied conversation id must resolve it through
// GetConversation first.
func (s *ChatService) AppendMessage(ctx context.Context, conversationID int32, role store.MessageRole, content string, toolCalls []store.ToolCallRecord) (*store.Message, error) {
	if !role.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown message role %q", role)
	}
	message, err := s.store.CreateMessage(ctx, &store.CreateMessage{
		UID:            shortuuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ToolCalls:      toolCalls,
	})
	if err != nil {
		slog.Error("append message failed", "conversation", conversationID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "append message")
	}
	return message, nil
}

// Messages returns the conversation's messages oldest first, after verifying
// ownership.
func (s *ChatService) Messages(ctx context.Context, conversationUID, userID string) ([]*store.Message, error) {
	conversation, err := s.GetConversation(ctx, conversationUID, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: conversation.ID})
	if err != nil {
		slog.Error("list messages failed", "conversation", conversationUID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "list messages")
	}
	return messages, nil
}

// HistoryForAgent projects the conversation to the {role, content} shape the
// agent replays. Tool-call detail and system rows are left out.
func (s *ChatService) HistoryForAgent(ctx context.Context, conversationID int32) ([]HistoryEntry, error) {
	messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: conversationID})
	if err != nil {
		slog.Error("load history failed", "conversation", conversationID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "load history")
	}
	history := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		if m.Role != store.RoleUser && m.Role != store.RoleAssistant {
			continue
		}
		history = append(history, HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return history, nil
}

// UpdateConversationTitle renames a conversation after verifying ownership.
func (s *ChatService) UpdateConversationTitle(ctx context.Context, conversationUID, userID, title string) (*store.Conversation, error) {
	if _, err := s.GetConversation(ctx, conversationUID, userID); err != nil {
		return nil, err
	}
	conversation, err := s.store.UpdateConversation(ctx, &store.UpdateConversation{
		UID:   conversationUID,
		Title: &title,
	})
	if err != nil {
		slog.Error("update conversation failed", "conversation", conversationUID, "err", err)
		return nil, errors.Wrap(ErrUnavailable, "update conversation")
	}
	return conversation, nil
}

// DeleteConversation removes a conversation and, by cascade, its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, conversationUID, userID string) error {
	if _, err := s.GetConversation(ctx, conversationUID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, conversationUID); err != nil {
		slog.Error("delete conversation failed", "conversation", conversationUID, "err", err)
		return errors.Wrap(ErrUnavailable, "delete conversation")
	}
	return nil
}
