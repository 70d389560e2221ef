package core

import "context"

// ChatProvider is the transport-level LLM abstraction. Services wrap it
// into their own collaborator interfaces (planner, tutor, summarizer).
type ChatProvider interface {
	// Chat sends the conversation and returns the complete reply.
	Chat(ctx context.Context, messages []Message) (Message, error)

	// ChatStream sends the conversation and delivers the reply
	// incrementally through onDelta, in generation order. It returns the
	// full concatenated reply. A non-nil error from onDelta or a
	// cancelled context aborts the generation.
	ChatStream(ctx context.Context, messages []Message, onDelta func(delta string) error) (string, error)
}
