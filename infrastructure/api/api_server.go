package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jhleee/geo-search-api/application/service"
	v1 "github.com/jhleee/geo-search-api/infrastructure/api/v1"
)

// APIServer exposes the location, search, and system services over HTTP.
type APIServer struct {
	locations *service.LocationService
	searchSvc *service.SearchService
	bulk      *service.BulkService
	server    *Server
	router    chi.Router
	logger    *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given services.
func NewAPIServer(
	locations *service.LocationService,
	searchSvc *service.SearchService,
	bulk *service.BulkService,
	logger *slog.Logger,
) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIServer{
		locations: locations,
		searchSvc: searchSvc,
		bulk:      bulk,
		logger:    logger,
	}
}

// mountRoutes wires up all v1 API routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	locationsRouter := v1.NewLocationsRouter(a.locations, a.bulk, a.logger)
	searchRouter := v1.NewSearchRouter(a.searchSvc, a.logger)
	systemRouter := v1.NewSystemRouter(a.locations, a.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/locations", locationsRouter.Routes())
		r.Mount("/search", searchRouter.Routes())
		r.Mount("/", systemRouter.Routes())
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	a.mountRoutes(server.Router())
	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the fully routed handler for use with custom servers and
// tests.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.router = chi.NewRouter()
		a.mountRoutes(a.router)
	}
	return a.router
}
