package modes

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Handler serves the mode catalog.
type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/modes", h.HandleListModes)
	mux.HandleFunc("GET /api/modes/{id}", h.HandleGetMode)
}

// HandleListModes handles GET /api/modes
func (h *Handler) HandleListModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ListResponse{
		Modes:        h.catalog.All(),
		DefaultStyle: models.DefaultGameStyle,
	})
}

// HandleGetMode handles GET /api/modes/{id}. Unknown ids get the generic mode.
func (h *Handler) HandleGetMode(w http.ResponseWriter, r *http.Request) {
	id := models.ModeID(r.PathValue("id"))
	mode, ok := h.catalog.Get(id)
	if !ok {
		log.Debug().Str("mode", string(id)).Msg("unknown mode requested")
	}
	writeJSON(w, mode)
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode modes response")
	}
}
