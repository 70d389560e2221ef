package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandevgo/tutord/internal/core"
	"github.com/sandevgo/tutord/internal/service/session"
)

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in session.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	sess, err := h.sessions.Create(r.Context(), UserIDFromContext(r.Context()), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	status := core.SessionStatus(q.Get("status"))

	sessions, total, err := h.sessions.List(r.Context(), UserIDFromContext(r.Context()), status, limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    total,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, sess)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID")); err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.sessions.Plan(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, plan)
}

func (h *Handler) handleGetDayPlan(w http.ResponseWriter, r *http.Request) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		Error(w, http.StatusBadRequest, "day must be an integer")
		return
	}

	dp, err := h.sessions.DayPlan(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"), day)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, dp)
}

func (h *Handler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.sessions.Progress(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (h *Handler) handlePatchProgress(w http.ResponseWriter, r *http.Request) {
	var in session.UpdateProgressInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.sessions.UpdateProgress(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (h *Handler) handleAdvanceDay(w http.ResponseWriter, r *http.Request) {
	p, err := h.sessions.AdvanceDay(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (h *Handler) handleGotoDay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Day int `json:"day"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := h.sessions.GotoDay(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"), in.Day)
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.sessions.History(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	JSON(w, http.StatusOK, hist)
}
