package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler serves the session API and the session event websocket.
type Handler struct {
	manager     *Manager
	connections *ConnectionManager
}

func NewHandler(manager *Manager, connections *ConnectionManager) *Handler {
	return &Handler{manager: manager, connections: connections}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.HandleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/start", h.HandleStart)
	mux.HandleFunc("POST /api/sessions/{id}/rounds", h.HandleBeginRound)
	mux.HandleFunc("POST /api/sessions/{id}/answer", h.HandleAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/end", h.HandleEnd)
	mux.HandleFunc("GET /ws/session", h.HandleSessionConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

// HandleCreate handles POST /api/sessions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.manager.Create(req.Mode, req.Style)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

// HandleGet handles GET /api/sessions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.manager.Get(id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// HandleDelete handles DELETE /api/sessions/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.manager.Delete(id); err != nil {
		h.writeManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStart handles POST /api/sessions/{id}/start
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.Start)
}

// HandleAnswer handles POST /api/sessions/{id}/answer
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.Answer)
}

// HandleEnd handles POST /api/sessions/{id}/end
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.End)
}

// HandleBeginRound handles POST /api/sessions/{id}/rounds. Sessions without
// sub-timers answer 204.
func (h *Handler) HandleBeginRound(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	started, err := h.manager.BeginRound(id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	if !started {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s, err := h.manager.Get(id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.View())
}

// HandleSessionConnection handles GET /ws/session?session_id=
func (h *Handler) HandleSessionConnection(w http.ResponseWriter, r *http.Request) {
	sessionIDStr := r.URL.Query().Get("session_id")
	if sessionIDStr == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session_id format")
		return
	}

	s, err := h.manager.Get(sessionID)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}

	snap := s.store.Snapshot()
	initial, err := NewSessionEvent(s.ID, EventTypeStatusChanged, StatusChangedPayload{
		Status:         snap.Status,
		PreviousStatus: snap.Status,
		StartTime:      snap.StartTime,
	}, h.manager.clock.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build initial event")
		return
	}

	// On failure the upgrader has already replied to the client.
	if err := h.connections.UpgradeConnection(w, r, sessionID, initial); err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}
	h.dropIfDeleted(sessionID)
}

// dropIfDeleted closes connections registered after their session was deleted.
// Delete removes the session before closing its connections, so a registration
// racing it is either closed there or caught here.
func (h *Handler) dropIfDeleted(sessionID uuid.UUID) {
	if _, err := h.manager.Get(sessionID); err == nil {
		return
	}
	log.Debug().Str("session_id", sessionID.String()).Msg("session deleted during upgrade, closing connections")
	h.connections.CloseSession(sessionID)
}

// HandleConnectionStats handles GET /ws/stats
func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connections.Stats())
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(uuid.UUID) (*Session, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := fn(id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handler) writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidMode), errors.Is(err, ErrInvalidStyle):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("session request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode session response")
	}
}
