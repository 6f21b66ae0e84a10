// Package rest provides the HTTP API for running interview sessions.
package rest

import (
	"context"
	"net/http"

	"ideaforge/application/commands/bus"
	"ideaforge/application/ports"
	querybus "ideaforge/application/queries/bus"
	"ideaforge/infrastructure/config"
	"ideaforge/interfaces/http/rest/handlers"
	"ideaforge/interfaces/http/rest/middleware"
	"ideaforge/pkg/errors"
	"ideaforge/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	catalog      ports.ProviderCatalog
	generation   ports.GenerationClient
	metrics      *observability.Collector
	errorHandler *errors.ErrorHandler
	ready        func(ctx context.Context) error
	cfg          *config.Config
	logger       *zap.Logger
}

// NewRouter creates a new router with all dependencies. The ready func
// reports storage health for the readiness probe.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	catalog ports.ProviderCatalog,
	generation ports.GenerationClient,
	metrics *observability.Collector,
	ready func(ctx context.Context) error,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		catalog:      catalog,
		generation:   generation,
		metrics:      metrics,
		errorHandler: errors.NewErrorHandler(logger, cfg.IsDevelopment()),
		ready:        ready,
		cfg:          cfg,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	// CORS configuration
	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health and observability endpoints
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		interviewHandler := handlers.NewInterviewHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
		r.Route("/interviews", func(r chi.Router) {
			r.Post("/", interviewHandler.StartInterview)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Post("/answers", interviewHandler.SubmitAnswer)
				r.Post("/skip", interviewHandler.SkipQuestion)
				r.Put("/answers/{messageID}", interviewHandler.EditAnswer)
				r.Get("/history", interviewHandler.GetHistory)
				r.Get("/status", interviewHandler.GetStatus)
			})
		})

		providerHandler := handlers.NewProviderHandler(rt.queryBus, rt.catalog, rt.errorHandler, rt.logger)
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", providerHandler.ListProviders)
			r.Put("/active", providerHandler.SwitchProvider)
		})
	})

	return router
}

// healthCheck handles liveness probes
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck verifies storage and reports generation backend state.
// An open circuit breaker does not fail the probe: turns keep working
// through template fallbacks while the backend is down.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if err := rt.ready(req.Context()); err != nil {
		rt.logger.Warn("readiness probe failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	body := `{"status":"ready"}`
	if !rt.generation.IsAvailable() {
		body = `{"status":"ready","generation":"degraded"}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
