package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stablemind-ai/stablemind/internal/service"
	"github.com/stablemind-ai/stablemind/internal/store"
)

// SessionHandler exposes the per-session turn loop and state snapshots.
type SessionHandler struct {
	agent *service.AgentService
}

func NewSessionHandler(agent *service.AgentService) *SessionHandler {
	return &SessionHandler{agent: agent}
}

type turnRequest struct {
	Message string `json:"message"`
}

func (h *SessionHandler) Turn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.agent.Step(r.Context(), sessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "session not bootstrapped")
		case errors.Is(err, service.ErrNoBaseline):
			writeError(w, http.StatusConflict, "persona has no baseline traits")
		default:
			writeError(w, http.StatusInternalServerError, "turn failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	persona, err := h.agent.LoadPersona(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}

	writeJSON(w, http.StatusOK, persona)
}

func (h *SessionHandler) Beliefs(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	persona, err := h.agent.LoadPersona(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}

	writeJSON(w, http.StatusOK, persona.Beliefs)
}

func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	if err := h.agent.ResetSession(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
