package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const defaultRequestTimeout = 30 * time.Second

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(timeoutMiddleware(s.requestTimeout()))

			r.Get("/decks", s.handleListDecks)
			r.Post("/decks", s.handleCreateDeck)
			r.Get("/decks/{id}", s.handleGetDeck)
			r.Delete("/decks/{id}", s.handleDeleteDeck)
			r.Get("/decks/{id}/cards", s.handleListDeckCards)
			r.Get("/decks/{id}/due-cards", s.handleDeckDueCards)
			r.Get("/due-cards", s.handleDueCards)

			r.Post("/cards", s.handleCreateCard)
			r.Get("/cards/{id}", s.handleGetCard)
			r.Get("/cards/{id}/reviews", s.handleListReviews)

			r.Post("/reviews", s.handleSubmitReview)
			r.Get("/stats", s.handleStats)
		})

		// Generation waits on the language model and is bounded by its own client timeout.
		r.Post("/generate-cards", s.handleGenerateCards)
		r.Post("/upload-document", s.handleUploadDocument)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFoundRoute(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errMethodNotAllowed(r))
	})
	return r
}

func (s *Server) corsOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.CORSOrigins
}

func (s *Server) requestTimeout() time.Duration {
	if s.RequestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return s.RequestTimeout
}
