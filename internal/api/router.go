// Package api assembles the HTTP surface of the engine.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tally-app/tally/internal/api/handlers"
	"github.com/tally-app/tally/internal/api/middleware"
	"github.com/tally-app/tally/internal/ledger"
	"github.com/tally-app/tally/internal/prediction"
	"github.com/tally-app/tally/internal/store"
	"github.com/tally-app/tally/internal/timeline"
)

// Server bundles the services behind the HTTP API.
type Server struct {
	store      store.Store
	ledger     *ledger.Ledger
	reconciler *timeline.Reconciler
	manager    *prediction.Manager
	log        zerolog.Logger
}

// NewServer creates an API server over the given services.
func NewServer(st store.Store, lg *ledger.Ledger, rec *timeline.Reconciler, mgr *prediction.Manager, log zerolog.Logger) *Server {
	return &Server{store: st, ledger: lg, reconciler: rec, manager: mgr, log: log}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	sources := handlers.NewSourcesHandler(s.store, s.log)
	categories := handlers.NewCategoriesHandler(s.store, s.log)
	transactions := handlers.NewTransactionsHandler(s.ledger, s.store, s.log)
	events := handlers.NewEventsHandler(s.store, s.log)
	tl := handlers.NewTimelineHandler(s.reconciler, s.log)
	predictions := handlers.NewPredictionsHandler(s.manager, s.log)

	r := chi.NewRouter()

	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.Logger(s.log))
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth)

		r.Route("/sources", func(r chi.Router) {
			r.Post("/", sources.Create)
			r.Get("/", sources.List)
			r.Get("/{id}", sources.Get)
			r.Put("/{id}", sources.Update)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", categories.Create)
			r.Get("/", categories.List)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", transactions.Post)
			r.Get("/", transactions.List)
			r.Put("/{id}", transactions.Edit)
			r.Delete("/{id}", transactions.Delete)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", events.Create)
			r.Get("/", events.List)
			r.Put("/{id}", events.Update)
			r.Delete("/{id}", events.Delete)
		})

		r.Get("/timeline", tl.Get)

		r.Route("/predictions", func(r chi.Router) {
			r.Post("/generate", predictions.Generate)
			r.Post("/{id}/accept", predictions.Accept)
			r.Post("/{id}/dismiss", predictions.Dismiss)
		})
	})

	return r
}
