package chat

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func tokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			panic("failed to load tiktoken: " + err.Error())
		}
	})
	return tk
}

func countTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(tokenizer().Encode(text, nil, nil))
}

// ResponsePlanner owns the burst/streamed classification rule. The reply is
// always consumed incrementally from the collaborator; fragments are
// buffered until the running token count reaches the threshold. Crossing
// the threshold commits to streamed delivery and flushes the buffered
// prefix; a reply that finishes under it is delivered as one burst.
type ResponsePlanner struct {
	threshold int
}

func NewResponsePlanner(threshold int) *ResponsePlanner {
	return &ResponsePlanner{threshold: threshold}
}

func (p *ResponsePlanner) newRelay(ctx context.Context, events chan<- Event) *relay {
	return &relay{
		ctx:       ctx,
		threshold: p.threshold,
		events:    events,
		modeCh:    make(chan Mode, 1),
	}
}

// relay carries one exchange's fragments from the collaborator to the
// event stream, deciding the delivery mode on the way. It is used by a
// single generation goroutine; only modeCh crosses goroutines.
type relay struct {
	ctx       context.Context
	threshold int
	events    chan<- Event

	modeCh   chan Mode
	mode     Mode
	resolved bool

	prefix []string
	tokens int
}

// OnFragment is the collaborator's delta callback. Returning an error
// aborts the upstream generation.
func (r *relay) OnFragment(fragment string) error {
	if fragment == "" {
		return nil
	}
	if r.resolved && r.mode == ModeStreamed {
		return r.send(Event{Kind: EventToken, Content: fragment})
	}

	r.prefix = append(r.prefix, fragment)
	r.tokens += countTokens(fragment)
	if r.tokens < r.threshold {
		return nil
	}

	r.resolve(ModeStreamed)
	for _, f := range r.prefix {
		if err := r.send(Event{Kind: EventToken, Content: f}); err != nil {
			return err
		}
	}
	r.prefix = nil
	return nil
}

// resolve fixes the delivery mode; later calls are no-ops, so a reply that
// crossed the threshold stays streamed.
func (r *relay) resolve(m Mode) {
	if r.resolved {
		return
	}
	r.resolved = true
	r.mode = m
	r.modeCh <- m
}

func (r *relay) send(ev Event) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// terminal delivers the stream's single terminal event. If the consumer's
// context is gone the event is dropped; the channel close still ends the
// stream.
func (r *relay) terminal(ev Event) {
	select {
	case r.events <- ev:
	case <-r.ctx.Done():
	}
}
