package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/naga-ia/agente/backend/internal/handler/chat"
	"github.com/naga-ia/agente/backend/internal/handler/persona"
	"github.com/naga-ia/agente/backend/internal/handler/qa"
	middlewarePkg "github.com/naga-ia/agente/backend/internal/middleware"
	personaModel "github.com/naga-ia/agente/backend/internal/model/persona"
	chatService "github.com/naga-ia/agente/backend/internal/service/chat"
	"github.com/naga-ia/agente/backend/internal/service/knowledge"
	"github.com/naga-ia/agente/backend/pkg/utils"
)

// HealthMessage is reported by the root health probe.
const HealthMessage = "Naga IA Backend funcionando"

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, store *knowledge.Store, unanswered *knowledge.UnansweredLog, chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc)
	qaHandler := qa.New(store, unanswered)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": HealthMessage})
	})

	r.Post("/reload", func(w http.ResponseWriter, r *http.Request) {
		if err := chatSvc.Reload(r.Context()); err != nil {
			log.Error().Err(err).Msg("[reload] failed")
			utils.RespondError(w, http.StatusInternalServerError, "reload failed")
			return
		}
		utils.RespondOK(w, true)
	})

	chatHandler.RegisterRoutes(r)
	qaHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		qaHandler.RegisterUnansweredRoutes(api)
	})

	return r
}
