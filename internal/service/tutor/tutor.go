// Package tutor drives the tutoring collaborator: it assembles the prompt
// from the session's plan position, summaries and recent history, streams
// the reply, and turns trailing completion markers into a typed signal.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/service/progress"
)

type Tutor struct {
	provider core.ChatProvider
}

func New(provider core.ChatProvider) *Tutor {
	return &Tutor{provider: provider}
}

// Reply generates the tutoring response to userMsg. Marker-free fragments
// are delivered to onFragment as they arrive from the collaborator; an
// onFragment error aborts the stream. The returned content is the full
// cleaned reply, ready for persistence.
func (t *Tutor) Reply(
	ctx context.Context,
	sess *core.Session,
	summaries []core.Summary,
	history []core.Message,
	userMsg string,
	onFragment func(fragment string) error,
) (string, progress.Signal, error) {
	messages := make([]core.Message, 0, len(history)+2)
	messages = append(messages, core.Message{
		Role:    core.RoleSystem,
		Content: systemPrompt(sess, summaries),
	})
	messages = append(messages, history...)
	messages = append(messages, core.Message{Role: core.RoleHuman, Content: userMsg})

	var clean strings.Builder
	filter := newMarkerFilter(func(fragment string) error {
		clean.WriteString(fragment)
		return onFragment(fragment)
	})

	if _, err := t.provider.ChatStream(ctx, messages, filter.Feed); err != nil {
		if ctx.Err() != nil {
			return "", progress.Signal{}, ctx.Err()
		}
		return "", progress.Signal{}, fmt.Errorf("%w: tutoring reply: %v", core.ErrUpstream, err)
	}

	sig, err := filter.Close()
	if err != nil {
		return "", progress.Signal{}, err
	}
	return strings.TrimRight(clean.String(), " \n"), sig, nil
}
