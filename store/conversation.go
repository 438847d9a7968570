package store

// Conversation represents a single chat thread between a user and the agent.
type Conversation struct {
	ID        int32
	UID       string
	UserID    string
	Title     *string // nil until set by the first chat turn or a rename
	CreatedTs int64
	UpdatedTs int64
}

// FindConversation filters for ListConversations / GetConversation.
type FindConversation struct {
	UID    *string
	UserID *string
}

// UpdateConversation carries fields accepted by UpdateConversation.
type UpdateConversation struct {
	UID   string
	Title *string
}

// ConversationSummary is a conversation plus its computed message count,
// produced by a single outer-join query.
type ConversationSummary struct {
	Conversation *Conversation
	MessageCount int64
}
