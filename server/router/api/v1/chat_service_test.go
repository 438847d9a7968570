package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat/agent"
	"github.com/taskchat/taskchat/server/profile"
	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
	"github.com/taskchat/taskchat/store/db/sqlite"
)

// fakeAgent returns a canned result and records what it was asked.
type fakeAgent struct {
	result *agent.RunResult
	err    error

	lastUserID  string
	lastMessage string
	lastHistory []service.HistoryEntry
}

func (f *fakeAgent) Run(_ context.Context, userID, message string, history []service.HistoryEntry) (*agent.RunResult, error) {
	f.lastUserID = userID
	f.lastMessage = message
	f.lastHistory = history
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	e     *echo.Echo
	chat  *service.ChatService
	agent *fakeAgent
}

func newTestEnv(t *testing.T, p *profile.Profile) *testEnv {
	t.Helper()
	driver, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { _ = driver.Close() })
	st := store.New(driver)

	if p == nil {
		p = &profile.Profile{
			Mode:              "dev",
			AgentTimeout:      5 * time.Second,
			ChatRatePerMinute: 600,
			ChatRateBurst:     600,
		}
	}
	fa := &fakeAgent{result: &agent.RunResult{FinalText: "Done."}}

	e := echo.New()
	svc := NewAPIV1Service(p, st, service.NewTaskService(st), service.NewChatService(st), fa)
	svc.RegisterRoutes(e)
	return &testEnv{e: e, chat: service.NewChatService(st), agent: fa}
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChatNewConversation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.agent.result = &agent.RunResult{
		FinalText: "Added it.",
		ToolCalls: []agent.ToolInvocation{{
			ToolName:  "add_task",
			Arguments: map[string]any{"title": "Buy milk"},
			Result:    map[string]any{"success": true},
		}},
	}

	rec := env.do(http.MethodPost, "/api/alice/chat", `{"message": "Add a task to buy milk"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeJSON[chatResponse](t, rec)
	require.NotEmpty(t, resp.ConversationID)
	require.Equal(t, "Added it.", resp.Response)
	require.Len(t, resp.ToolCalls, 1)
	require.Equal(t, "add_task", resp.ToolCalls[0].ToolName)

	require.Equal(t, "alice", env.agent.lastUserID)
	require.Equal(t, "Add a task to buy milk", env.agent.lastMessage)
	require.Empty(t, env.agent.lastHistory)

	// Both turns were persisted, the assistant one with its tool calls, and
	// the conversation was titled from the first message.
	ctx := context.Background()
	conv, err := env.chat.GetConversation(ctx, resp.ConversationID, "alice")
	require.NoError(t, err)
	require.NotNil(t, conv.Title)
	require.Equal(t, "Add a task to buy milk", *conv.Title)

	messages, err := env.chat.Messages(ctx, resp.ConversationID, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, store.RoleUser, messages[0].Role)
	require.Equal(t, store.RoleAssistant, messages[1].Role)
	require.Len(t, messages[1].ToolCalls, 1)
}

func TestChatResumeConversation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/alice/chat", `{"message": "first turn"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeJSON[chatResponse](t, rec)

	rec = env.do(http.MethodPost, "/api/alice/chat",
		`{"message": "second turn", "conversation_id": "`+first.ConversationID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeJSON[chatResponse](t, rec)
	require.Equal(t, first.ConversationID, second.ConversationID)

	// The resumed run saw the previous user and assistant turns.
	require.Equal(t, []service.HistoryEntry{
		{Role: "user", Content: "first turn"},
		{Role: "assistant", Content: "Done."},
	}, env.agent.lastHistory)

	messages, err := env.chat.Messages(context.Background(), first.ConversationID, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 4)
}

func TestChatValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("blank message", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/alice/chat", `{"message": "   "}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/problem+json")
		p := decodeJSON[problemDetail](t, rec)
		require.Equal(t, problemValidation, p.Type)
		require.Equal(t, "/api/alice/chat", p.Instance)
	})

	t.Run("oversized message", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/alice/chat",
			`{"message": "`+strings.Repeat("x", 4001)+`"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non json body", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/alice/chat", `not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChatForeignConversation(t *testing.T) {
	env := newTestEnv(t, nil)

	conv, err := env.chat.CreateConversation(context.Background(), "bob", nil)
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/api/alice/chat",
		`{"message": "hello", "conversation_id": "`+conv.UID+`"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	p := decodeJSON[problemDetail](t, rec)
	require.Equal(t, problemNotFound, p.Type)

	// Nothing leaked into bob's conversation.
	messages, err := env.chat.Messages(context.Background(), conv.UID, "bob")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestChatAgentTimeout(t *testing.T) {
	env := newTestEnv(t, nil)
	env.agent.err = context.DeadlineExceeded

	rec := env.do(http.MethodPost, "/api/alice/chat", `{"message": "hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	p := decodeJSON[problemDetail](t, rec)
	require.Equal(t, problemTimeout, p.Type)
}

func TestChatRateLimit(t *testing.T) {
	env := newTestEnv(t, &profile.Profile{
		Mode:              "dev",
		AgentTimeout:      5 * time.Second,
		ChatRatePerMinute: 1,
		ChatRateBurst:     1,
	})

	rec := env.do(http.MethodPost, "/api/alice/chat", `{"message": "one"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/alice/chat", `{"message": "two"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	p := decodeJSON[problemDetail](t, rec)
	require.Equal(t, problemRateLimited, p.Type)

	// The bucket is per user, not global.
	rec = env.do(http.MethodPost, "/api/bob/chat", `{"message": "three"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAutoTitle(t *testing.T) {
	require.Equal(t, "Buy milk", autoTitle("  Buy   milk \n"))

	long := strings.Repeat("word ", 30)
	title := autoTitle(long)
	require.LessOrEqual(t, len([]rune(title)), maxAutoTitleLength)
	require.True(t, strings.HasSuffix(title, "..."))
}
