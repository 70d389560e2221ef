package core

import "context"

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	UserID string
	Status SessionStatus
	Limit  int
	Offset int
}

// ExchangeOp is one step of an exchange commit. Exactly one field is set.
type ExchangeOp struct {
	// Append, when non-nil, appends a message to the buffer tail.
	Append *Message

	// Compact, when non-nil, appends a summary with the next sequence
	// number for the session and clears the buffer. Only Content is
	// read; Seq is assigned by the store.
	Compact *Summary
}

// Repository is the durable store contract for sessions, buffered messages
// and summaries. All session state reachable from the engine goes through
// it; nothing here is cached process-wide.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]*Session, error)
	CountSessions(ctx context.Context, userID string) (int, error)
	UpdateSession(ctx context.Context, s *Session) error

	// DeleteSession removes the session and, cascading, its messages and
	// summaries in one transaction.
	DeleteSession(ctx context.Context, id string) error

	// BufferedMessages returns the session's buffer in chronological
	// order. The buffer holds at most the configured capacity.
	BufferedMessages(ctx context.Context, sessionID string) ([]Message, error)

	// Summaries returns the session's summaries ordered by Seq.
	Summaries(ctx context.Context, sessionID string) ([]Summary, error)

	// CommitExchange applies the ops in order and persists the updated
	// session row, all in a single transaction. Either every effect of
	// the exchange commits or none does.
	CommitExchange(ctx context.Context, s *Session, ops []ExchangeOp) error

	Ping(ctx context.Context) error
	Close() error
}
