package chat

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/naga-ia/agente/backend/internal/model/chat"
	chatService "github.com/naga-ia/agente/backend/internal/service/chat"
	"github.com/naga-ia/agente/backend/pkg/utils"
)

const failureReplyPrefix = "Desculpe, não consegui processar sua pergunta no momento. Erro: "

// diagnosticLimit bounds how much of an internal error reaches customers.
const diagnosticLimit = 100

// Handler serves the customer chat endpoint.
type Handler struct {
	chatSvc *chatService.Service
}

// New returns a chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the customer chat endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ask", h.handleAsk)
}

type askRequest struct {
	Question  *string `json:"pergunta"`
	SessionID string  `json:"session_id"`
}

// handleAsk answers a customer question. Once the body is understood it
// always responds 200; internal failures become a short apology.
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload askRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if payload.Question == nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, "pergunta is required")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("session_id", payload.SessionID).Msg("[chat] ask panicked")
			utils.RespondJSON(w, http.StatusOK, failureReply(fmt.Sprint(rec)))
		}
	}()

	reply, err := h.chatSvc.Handle(r.Context(), *payload.Question, payload.SessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", reply.SessionID).Msg("[chat] ask failed")
		utils.RespondJSON(w, http.StatusOK, failureReply(err.Error()))
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func failureReply(detail string) chat.Reply {
	runes := []rune(detail)
	if len(runes) > diagnosticLimit {
		runes = runes[:diagnosticLimit]
	}
	return chat.Reply{Text: failureReplyPrefix + string(runes)}
}
