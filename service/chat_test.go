package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat/store"
)

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	chat := NewChatService(newTestStore(t))

	title := "Groceries"
	conv, err := chat.CreateConversation(ctx, "alice", &title)
	require.NoError(t, err)
	require.NotEmpty(t, conv.UID)
	require.NotNil(t, conv.Title)
	require.Equal(t, "Groceries", *conv.Title)

	t.Run("owner can fetch", func(t *testing.T) {
		got, err := chat.GetConversation(ctx, conv.UID, "alice")
		require.NoError(t, err)
		require.Equal(t, conv.ID, got.ID)
	})

	t.Run("foreign user sees not found", func(t *testing.T) {
		_, errForeign := chat.GetConversation(ctx, conv.UID, "mallory")
		require.ErrorIs(t, errForeign, ErrNotFound)

		_, errMissing := chat.GetConversation(ctx, "no-such-conversation", "alice")
		require.ErrorIs(t, errMissing, ErrNotFound)
	})

	t.Run("untitled conversation", func(t *testing.T) {
		untitled, err := chat.CreateConversation(ctx, "alice", nil)
		require.NoError(t, err)
		require.Nil(t, untitled.Title)
	})

	t.Run("rename", func(t *testing.T) {
		renamed, err := chat.UpdateConversationTitle(ctx, conv.UID, "alice", "Shopping")
		require.NoError(t, err)
		require.Equal(t, "Shopping", *renamed.Title)

		_, err = chat.UpdateConversationTitle(ctx, conv.UID, "mallory", "hijacked")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageOrdering(t *testing.T) {
	ctx := context.Background()
	chat := NewChatService(newTestStore(t))

	conv, err := chat.CreateConversation(ctx, "alice", nil)
	require.NoError(t, err)

	// All inserts land within the same second; the replay order must still
	// match the append order.
	const n = 20
	for i := 0; i < n; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		_, err := chat.AppendMessage(ctx, conv.ID, role, fmt.Sprintf("turn %d", i), nil)
		require.NoError(t, err)
	}

	messages, err := chat.Messages(ctx, conv.UID, "alice")
	require.NoError(t, err)
	require.Len(t, messages, n)
	for i, m := range messages {
		require.Equal(t, fmt.Sprintf("turn %d", i), m.Content)
	}
}

func TestAppendMessage(t *testing.T) {
	ctx := context.Background()
	chat := NewChatService(newTestStore(t))

	conv, err := chat.CreateConversation(ctx, "alice", nil)
	require.NoError(t, err)

	t.Run("invalid role rejected", func(t *testing.T) {
		_, err := chat.AppendMessage(ctx, conv.ID, store.MessageRole("moderator"), "hi", nil)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("tool calls round trip", func(t *testing.T) {
		calls := []store.ToolCallRecord{{
			ToolName:  "add_task",
			Arguments: map[string]any{"title": "Buy milk"},
			Result:    map[string]any{"success": true},
		}}
		_, err := chat.AppendMessage(ctx, conv.ID, store.RoleAssistant, "Done.", calls)
		require.NoError(t, err)

		messages, err := chat.Messages(ctx, conv.UID, "alice")
		require.NoError(t, err)
		last := messages[len(messages)-1]
		require.Len(t, last.ToolCalls, 1)
		require.Equal(t, "add_task", last.ToolCalls[0].ToolName)
		require.Equal(t, "Buy milk", last.ToolCalls[0].Arguments["title"])
	})

	t.Run("bumps conversation updated_ts ordering", func(t *testing.T) {
		other, err := chat.CreateConversation(ctx, "alice", nil)
		require.NoError(t, err)
		_, err = chat.AppendMessage(ctx, other.ID, store.RoleUser, "newest activity", nil)
		require.NoError(t, err)

		summaries, err := chat.ListConversations(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		// Most recently active first; id breaks same-second ties.
		require.Equal(t, other.UID, summaries[0].Conversation.UID)
		require.Equal(t, int64(1), summaries[0].MessageCount)
	})
}

func TestHistoryForAgent(t *testing.T) {
	ctx := context.Background()
	chat := NewChatService(newTestStore(t))

	conv, err := chat.CreateConversation(ctx, "alice", nil)
	require.NoError(t, err)

	_, err = chat.AppendMessage(ctx, conv.ID, store.RoleUser, "add a task", nil)
	require.NoError(t, err)
	_, err = chat.AppendMessage(ctx, conv.ID, store.RoleAssistant, "done", []store.ToolCallRecord{
		{ToolName: "add_task", Arguments: map[string]any{"title": "x"}},
	})
	require.NoError(t, err)
	_, err = chat.AppendMessage(ctx, conv.ID, store.RoleSystem, "internal note", nil)
	require.NoError(t, err)

	history, err := chat.HistoryForAgent(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, []HistoryEntry{
		{Role: "user", Content: "add a task"},
		{Role: "assistant", Content: "done"},
	}, history)
}

func TestDeleteConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	chat := NewChatService(st)

	conv, err := chat.CreateConversation(ctx, "alice", nil)
	require.NoError(t, err)
	_, err = chat.AppendMessage(ctx, conv.ID, store.RoleUser, "hello", nil)
	require.NoError(t, err)

	require.ErrorIs(t, chat.DeleteConversation(ctx, conv.UID, "mallory"), ErrNotFound)
	require.NoError(t, chat.DeleteConversation(ctx, conv.UID, "alice"))

	_, err = chat.GetConversation(ctx, conv.UID, "alice")
	require.ErrorIs(t, err, ErrNotFound)

	// Cascade removed the messages too.
	messages, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: conv.ID})
	require.NoError(t, err)
	require.Empty(t, messages)
}
