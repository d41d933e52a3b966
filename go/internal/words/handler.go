package words

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WordsApp defines what the HTTP layer needs from the words application
type WordsApp interface {
	ParseQuery(rawLevel, rawLimit string) (Query, error)
	RandomWords(ctx context.Context, q Query) (*RandomWordsResult, error)
}

// Handler serves GET /api/words
type Handler struct {
	app WordsApp
}

// NewHandler creates a new words HTTP handler
func NewHandler(app WordsApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes registers the words routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/words", h.HandleGetWords)
}

// HandleGetWords handles GET /api/words?level=b1&limit=5
func (h *Handler) HandleGetWords(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := h.app.ParseQuery(params.Get("level"), params.Get("limit"))
	if errors.Is(err, ErrInvalidLevel) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: InvalidLevelMessage})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.app.RandomWords(r.Context(), q)
	if err != nil {
		log.Error().
			Err(err).
			Str("level", string(q.Level)).
			Int("limit", q.Limit).
			Msg("error fetching words from database")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to fetch words from database",
		})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Words:   result.Words,
		Count:   len(result.Words),
		Level:   string(result.Level),
		Message: result.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode words response")
	}
}
