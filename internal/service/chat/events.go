package chat

import "github.com/sandevgo/tutord/internal/service/progress"

// Mode is the delivery protocol chosen for one exchange. Burst replies fit
// under the token threshold and are delivered as a single body; streamed
// replies are relayed incrementally as they arrive.
type Mode int

const (
	ModeBurst Mode = iota
	ModeStreamed
)

func (m Mode) String() string {
	if m == ModeStreamed {
		return "streamed"
	}
	return "burst"
}

type EventKind string

const (
	EventToken EventKind = "token"
	EventDone  EventKind = "done"
	EventError EventKind = "error"
)

// Event is one item of an exchange's event stream. Exactly one terminal
// event (done or error) ends every stream; token events only precede it.
type Event struct {
	Kind     EventKind
	Content  string
	Progress *progress.Snapshot
	Err      error
}
