package server

import (
	"net/http"

	"github.com/cloo-solutions/corpora/internal/api"
	"github.com/cloo-solutions/corpora/internal/api/handlers"
	"github.com/cloo-solutions/corpora/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator   middleware.AuthValidator
	AskHandler      *handlers.AskHandler
	DocumentHandler *handlers.DocumentHandler
	AuthHandler     *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/ask", cfg.AskHandler.Ask)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload/init", cfg.DocumentHandler.InitUpload)
			r.Post("/upload/complete", cfg.DocumentHandler.CompleteUpload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Get("/{id}/download", cfg.DocumentHandler.GetDownloadURL)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})
	})

	r.Post("/users", cfg.AuthHandler.CreateUser)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
