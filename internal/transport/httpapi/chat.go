package httpapi

import (
	"net/http"
	"strings"

	"github.com/sandevgo/tutord/internal/service/chat"
	"github.com/sandevgo/tutord/internal/service/progress"
	"github.com/sandevgo/tutord/pkg/log"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type startLessonRequest struct {
	SessionID string `json:"session_id"`
	Day       *int   `json:"day,omitempty"`
}

// handleChat runs one tutoring exchange. The response representation is
// chosen after classification: a burst reply is one JSON body, a streamed
// reply is an SSE stream of token events ending in done or error.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode, events, err := h.chat.HandleMessage(r.Context(), UserIDFromContext(r.Context()), req.SessionID, req.Message)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.deliver(w, r, mode, events)
}

// handleStartLesson opens the session's current (or requested) day with a
// tutor-generated opening message, delivered like a chat reply.
func (h *Handler) handleStartLesson(w http.ResponseWriter, r *http.Request) {
	var req startLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode, events, err := h.chat.StartLesson(r.Context(), UserIDFromContext(r.Context()), req.SessionID, req.Day)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.deliver(w, r, mode, events)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request, mode chat.Mode, events <-chan chat.Event) {
	if mode == chat.ModeBurst {
		h.deliverBurst(w, events)
		return
	}
	h.deliverStream(w, r, events)
}

// deliverBurst drains the (already short) event stream into one JSON body.
func (h *Handler) deliverBurst(w http.ResponseWriter, events <-chan chat.Event) {
	var (
		reply strings.Builder
		snap  *progress.Snapshot
	)
	for ev := range events {
		switch ev.Kind {
		case chat.EventToken:
			reply.WriteString(ev.Content)
		case chat.EventDone:
			snap = ev.Progress
		case chat.EventError:
			writeErr(w, ev.Err)
			return
		}
	}
	if snap == nil {
		Error(w, http.StatusInternalServerError, "exchange ended without outcome")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"response": reply.String(),
		"progress": snap,
	})
}

func (h *Handler) deliverStream(w http.ResponseWriter, r *http.Request, events <-chan chat.Event) {
	logger := log.FromCtx(r.Context())

	sse, err := newSSEWriter(w)
	if err != nil {
		writeErr(w, err)
		return
	}

	for ev := range events {
		var sendErr error
		switch ev.Kind {
		case chat.EventToken:
			sendErr = sse.Send("token", map[string]string{"content": ev.Content})
		case chat.EventDone:
			sendErr = sse.Send("done", ev.Progress)
		case chat.EventError:
			sendErr = sse.Send("error", map[string]string{"error": ev.Err.Error()})
		}
		if sendErr != nil {
			logger.Debug().Err(sendErr).Msg("client dropped event stream")
			return
		}
	}
}
