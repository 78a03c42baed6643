package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/happy-paws/petshop/internal/alerts"
	"github.com/happy-paws/petshop/internal/domain"
	"github.com/happy-paws/petshop/internal/keeper"
	"github.com/happy-paws/petshop/internal/petcare"
	"github.com/happy-paws/petshop/internal/store"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server. keeper may be nil when the periodic
// scheduler is disabled; POST /decay then remains the only decay trigger.
func NewServer(cfg domain.ServerConfig, st *store.Store, engine *petcare.Engine, alertEngine *alerts.Engine, kpr *keeper.Keeper, version string) *Server {
	handler := NewHandler(st, engine, alertEngine, kpr, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for the browser UI
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Record store
	router.Route("/pets", func(r chi.Router) {
		r.Post("/", handler.CreatePet)
		r.Get("/", handler.ListPets)
		r.Get("/available", handler.ListAvailablePets)
		r.Get("/sold", handler.ListSoldPets)
		r.Get("/{id}", handler.GetPet)
		r.Patch("/{id}", handler.UpdatePet)
		r.Delete("/{id}", handler.DeletePet)

		// Behavior engine
		r.Post("/{id}/feed", handler.FeedPet)
		r.Post("/{id}/play", handler.PlayPet)
		r.Post("/{id}/sell", handler.SellPet)
	})

	// Decay tick over all available pets
	router.Post("/decay", handler.DecayTick)

	// Ledger
	router.Get("/transactions", handler.ListTransactions)
	router.Get("/sales/total", handler.TotalSales)
	router.Get("/stats", handler.Stats)

	// Snapshots
	router.Get("/export", handler.ExportSnapshot)
	router.Post("/import", handler.ImportSnapshot)
	router.Post("/clear", handler.Clear)
	router.Post("/save", handler.Save)
	router.Post("/load", handler.Load)

	// Attention rules
	router.Get("/alerts/rules", handler.ListAlertRules)
	router.Post("/alerts/rules", handler.CreateAlertRule)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
