package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vetlabs/vetassist/internal/api"
	"github.com/vetlabs/vetassist/internal/api/handlers"
	"github.com/vetlabs/vetassist/internal/api/middleware"
)

type RouterConfig struct {
	ServiceTokens    []string
	ChatHandler      *handlers.ChatHandler
	SearchHandler    *handlers.SearchHandler
	KnowledgeHandler *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		// no tokens configured means auth is disabled, local development only
		if len(cfg.ServiceTokens) > 0 {
			r.Use(middleware.ServiceTokenAuth(cfg.ServiceTokens))
		}

		r.Route("/v1", func(r chi.Router) {
			r.Post("/chat", cfg.ChatHandler.Handle)
			r.Post("/search", cfg.SearchHandler.Handle)
			r.Get("/knowledge", cfg.KnowledgeHandler.Manifest)
		})
	})

	return r
}
