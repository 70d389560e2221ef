// Package httpapi is the HTTP binding of the engine: REST for session
// lifecycle and navigation, JSON or SSE for tutoring exchanges depending
// on the chosen delivery mode.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/service/chat"
	"github.com/sandevgo/tutord/internal/service/session"
)

type Handler struct {
	sessions *session.Service
	chat     *chat.Orchestrator
	repo     core.Repository
}

func NewHandler(sessions *session.Service, orchestrator *chat.Orchestrator, repo core.Repository) *Handler {
	return &Handler{sessions: sessions, chat: orchestrator, repo: repo}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// errStatus maps the engine's error categories onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidDayRange):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	Error(w, errStatus(err), err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": err.Error(),
		})
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": core.TutordName,
		"version": core.TutordVersion,
	})
}
