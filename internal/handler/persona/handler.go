package persona

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/naga-ia/agente/backend/internal/model/persona"
	"github.com/naga-ia/agente/backend/pkg/utils"
)

// Handler exposes the persona prompt to the admin panel.
type Handler struct {
	personas persona.Store
}

// New returns a persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes mounts the prompt endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/prompt", h.handleGetPrompt)
	r.Post("/prompt", h.handleSavePrompt)
}

func (h *Handler) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"prompt": persona.LoadOr(h.personas, persona.DefaultEditorPrompt),
	})
}

// handleSavePrompt reports failures as {"ok": false}, which is what the
// admin panel checks.
func (h *Handler) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt *string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Prompt == nil {
		utils.RespondOK(w, false)
		return
	}

	if err := h.personas.Save(*payload.Prompt); err != nil {
		log.Error().Err(err).Msg("[persona] failed to save prompt")
		utils.RespondOK(w, false)
		return
	}
	utils.RespondOK(w, true)
}
