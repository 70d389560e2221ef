// Package chat orchestrates one tutoring exchange end to end: it
// serializes access to the session, drives the tutoring collaborator,
// classifies the delivery mode, stages the memory ops and commits the
// whole exchange atomically before the terminal event is emitted.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/service/memory"
	"github.com/sandevgo/tutord/internal/service/progress"
	"github.com/sandevgo/tutord/internal/service/tutor"
	"github.com/sandevgo/tutord/pkg/log"
)

type Orchestrator struct {
	repo    core.Repository
	tutor   *tutor.Tutor
	buffer  *memory.Buffer
	planner *ResponsePlanner
	locks   *sessionLocks
}

func NewOrchestrator(repo core.Repository, tut *tutor.Tutor, buffer *memory.Buffer, planner *ResponsePlanner) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		tutor:   tut,
		buffer:  buffer,
		planner: planner,
		locks:   newSessionLocks(),
	}
}

// HandleMessage runs one tutoring exchange. Precondition failures (unknown
// session, wrong status, empty message) are returned synchronously; once
// generation starts, failures arrive as the stream's terminal error event.
// The returned mode is final: burst streams exactly one token event with
// the full reply, streamed relays fragments as they arrive. In both cases
// the exchange is persisted before done is emitted, and nothing is
// persisted when the terminal event is an error.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, sessionID, message string) (Mode, <-chan Event, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, nil, fmt.Errorf("%w: message must not be empty", core.ErrValidation)
	}

	unlock := o.locks.Lock(sessionID)

	sess, buffered, summaries, err := o.loadForExchange(ctx, userID, sessionID)
	if err != nil {
		unlock()
		return 0, nil, err
	}
	if !sess.Status.Chatable() {
		unlock()
		return 0, nil, fmt.Errorf("%w: session is %s", core.ErrStateConflict, sess.Status)
	}

	mode, events := o.exchange(ctx, sess, buffered, summaries, message, true, unlock)
	return mode, events, nil
}

// StartLesson opens the current day: it generates the tutor's opening
// message from a synthetic prompt that is not persisted as history. An
// optional day jump is applied first.
func (o *Orchestrator) StartLesson(ctx context.Context, userID, sessionID string, day *int) (Mode, <-chan Event, error) {
	unlock := o.locks.Lock(sessionID)

	sess, buffered, summaries, err := o.loadForExchange(ctx, userID, sessionID)
	if err != nil {
		unlock()
		return 0, nil, err
	}
	if err := progress.Start(sess, day); err != nil {
		unlock()
		return 0, nil, err
	}

	opening := tutor.OpeningPrompt(sess)
	mode, events := o.exchange(ctx, sess, buffered, summaries, opening, false, unlock)
	return mode, events, nil
}

func (o *Orchestrator) loadForExchange(ctx context.Context, userID, sessionID string) (*core.Session, []core.Message, []core.Summary, error) {
	sess, err := o.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if sess.UserID != userID {
		return nil, nil, nil, fmt.Errorf("%w: session %s", core.ErrNotFound, sessionID)
	}

	buffered, err := o.repo.BufferedMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	summaries, err := o.repo.Summaries(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	return sess, buffered, summaries, nil
}

// exchange launches the generation goroutine and blocks only until the
// delivery mode is known.
func (o *Orchestrator) exchange(
	ctx context.Context,
	sess *core.Session,
	buffered []core.Message,
	summaries []core.Summary,
	prompt string,
	persistPrompt bool,
	unlock func(),
) (Mode, <-chan Event) {
	events := make(chan Event, 4)
	r := o.planner.newRelay(ctx, events)

	go func() {
		defer unlock()
		defer close(events)
		o.runExchange(ctx, r, sess, buffered, summaries, prompt, persistPrompt)
	}()

	mode := <-r.modeCh
	return mode, events
}

func (o *Orchestrator) runExchange(
	ctx context.Context,
	r *relay,
	sess *core.Session,
	buffered []core.Message,
	summaries []core.Summary,
	prompt string,
	persistPrompt bool,
) {
	ctx = log.WithSession(ctx, sess.ID)
	logger := log.FromCtx(ctx)

	content, sig, err := o.tutor.Reply(ctx, sess, summaries, buffered, prompt, r.OnFragment)
	// Resolve the mode even on failure so the caller never blocks; an
	// unclassified failed reply reports as burst.
	r.resolve(ModeBurst)
	if err == nil {
		// A cancelled exchange is discarded even when generation managed
		// to finish.
		err = ctx.Err()
	}
	if err != nil {
		logger.Error().Err(err).Msg("tutoring exchange failed")
		r.terminal(Event{Kind: EventError, Err: err})
		return
	}

	now := time.Now().UTC()
	incoming := make([]core.Message, 0, 2)
	if persistPrompt {
		incoming = append(incoming, core.Message{Role: core.RoleHuman, Content: prompt, CreatedAt: now})
	}
	incoming = append(incoming, core.Message{Role: core.RoleAssistant, Content: content, CreatedAt: now})

	ops, err := o.buffer.StageExchange(ctx, buffered, incoming)
	if err != nil {
		logger.Error().Err(err).Msg("staging exchange failed")
		r.terminal(Event{Kind: EventError, Err: err})
		return
	}

	if sess.Status == core.StatusReady {
		sess.Status = core.StatusInProgress
	}
	snap := progress.Apply(sess, sig)
	sess.UpdatedAt = now

	if err := o.repo.CommitExchange(ctx, sess, ops); err != nil {
		logger.Error().Err(err).Msg("committing exchange failed")
		r.terminal(Event{Kind: EventError, Err: err})
		return
	}

	if r.mode == ModeBurst {
		if err := r.send(Event{Kind: EventToken, Content: content}); err != nil {
			return
		}
	}
	r.terminal(Event{Kind: EventDone, Progress: &snap})
}
