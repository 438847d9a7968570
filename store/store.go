package store

import "context"

// Driver is the database-specific implementation behind Store. One package
// per database lives under store/db.
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	CreateTask(ctx context.Context, create *Task) (*Task, error)
	ListTasks(ctx context.Context, find *FindTask) ([]*Task, error)
	GetTask(ctx context.Context, find *FindTask) (*Task, error)
	// UpdateTask applies the non-nil fields and bumps updated_ts. Returns
	// (nil, nil) when no row matches both UID and UserID.
	UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error)
	// DeleteTask reports whether a row was actually removed.
	DeleteTask(ctx context.Context, delete *DeleteTask) (bool, error)

	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error)
	ListConversationSummaries(ctx context.Context, userID string) ([]*ConversationSummary, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	// DeleteConversation removes the conversation and, by cascade, its messages.
	DeleteConversation(ctx context.Context, uid string) error

	// CreateMessage inserts the message and bumps the parent conversation's
	// updated_ts in one transaction.
	CreateMessage(ctx context.Context, create *CreateMessage) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
}

// Store is the storage facade used by the service layer.
type Store struct {
	driver Driver
}

// New builds a Store on top of the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

// GetTask returns the first task matching the filter, or nil when absent.
func (s *Store) GetTask(ctx context.Context, find *FindTask) (*Task, error) {
	return s.driver.GetTask(ctx, find)
}

func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	return s.driver.UpdateTask(ctx, update)
}

func (s *Store) DeleteTask(ctx context.Context, delete *DeleteTask) (bool, error) {
	return s.driver.DeleteTask(ctx, delete)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching the filter, or nil
// when absent.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	return s.driver.GetConversation(ctx, find)
}

// ListConversationSummaries lists a user's conversations with message counts,
// most recently active first.
func (s *Store) ListConversationSummaries(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	return s.driver.ListConversationSummaries(ctx, userID)
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) DeleteConversation(ctx context.Context, uid string) error {
	return s.driver.DeleteConversation(ctx, uid)
}

func (s *Store) CreateMessage(ctx context.Context, create *CreateMessage) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

// ListMessages returns all messages of a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}
