package store

// MessageRole is the author of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Valid reports whether r is one of the known roles.
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// ToolCallRecord is one tool invocation made by the agent while producing an
// assistant message. Stored alongside the message as JSON.
type ToolCallRecord struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
}

// Message is a single immutable message within a conversation.
type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	ToolCalls      []ToolCallRecord // nil for messages without tool activity
	CreatedTs      int64
}

// CreateMessage is the payload for CreateMessage. The driver inserts the row
// and bumps the parent conversation's updated_ts in the same transaction.
type CreateMessage struct {
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	ToolCalls      []ToolCallRecord
}

// FindMessage filters for ListMessages.
type FindMessage struct {
	ConversationID int32
}
