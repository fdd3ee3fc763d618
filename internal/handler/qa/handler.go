package qa

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/naga-ia/agente/backend/internal/service/knowledge"
	"github.com/naga-ia/agente/backend/pkg/utils"
)

// Handler serves knowledge base maintenance.
type Handler struct {
	store      *knowledge.Store
	unanswered *knowledge.UnansweredLog
}

// New returns a knowledge base handler. unanswered may be nil.
func New(store *knowledge.Store, unanswered *knowledge.UnansweredLog) *Handler {
	return &Handler{store: store, unanswered: unanswered}
}

// RegisterRoutes mounts the CRUD endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/qa", h.handleList)
	r.Post("/qa", h.handleAdd)
	r.Put("/qa/{idx}", h.handleUpdate)
	r.Delete("/qa/{idx}", h.handleDelete)
}

// RegisterUnansweredRoutes mounts the unanswered-question log endpoint.
func (h *Handler) RegisterUnansweredRoutes(r chi.Router) {
	r.Post("/unanswered", h.handleUnanswered)
}

type entryPayload struct {
	Question string `json:"pergunta"`
	Answer   string `json:"resposta"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("[qa] list failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to read knowledge base")
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := h.store.Add(r.Context(), payload.Question, payload.Answer); err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondOK(w, true)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	idx, ok := parseIndex(w, r)
	if !ok {
		return
	}
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := h.store.Update(r.Context(), idx, payload.Question, payload.Answer); err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondOK(w, true)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	idx, ok := parseIndex(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), idx); err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondOK(w, true)
}

func (h *Handler) handleUnanswered(w http.ResponseWriter, r *http.Request) {
	if h.unanswered == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "unanswered log disabled")
		return
	}
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if _, err := h.unanswered.Append(r.Context(), payload.Question, payload.Answer); err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondOK(w, true)
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "idx must be an integer")
		return 0, false
	}
	return idx, true
}

func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, knowledge.ErrValidation):
		utils.RespondError(w, http.StatusBadRequest, "Pergunta e resposta não podem ser vazias.")
	case errors.Is(err, knowledge.ErrDuplicate):
		utils.RespondError(w, http.StatusBadRequest, "Pergunta já existe na base.")
	case errors.Is(err, knowledge.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "Not Found")
	default:
		log.Error().Err(err).Msg("[qa] knowledge base write failed")
		utils.RespondError(w, http.StatusInternalServerError, "failed to update knowledge base")
	}
}
