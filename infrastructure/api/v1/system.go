package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/infrastructure/api/middleware"
	"github.com/jhleee/geo-search-api/infrastructure/api/v1/dto"
)

// SystemRouter handles stats and health endpoints.
type SystemRouter struct {
	locations *service.LocationService
	logger    *slog.Logger
}

// NewSystemRouter creates a new SystemRouter.
func NewSystemRouter(locations *service.LocationService, logger *slog.Logger) *SystemRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemRouter{
		locations: locations,
		logger:    logger,
	}
}

// Routes returns the chi router for system endpoints.
func (r *SystemRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/stats", r.Stats)
	router.Get("/health", r.Health)

	return router
}

// Stats handles GET /api/v1/stats.
func (r *SystemRouter) Stats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.locations.Stats(req.Context())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.StatsResponse{
		Locations:  stats.Locations(),
		Embeddings: stats.Embeddings(),
		IndexState: string(stats.IndexState()),
		Model:      stats.Model(),
	})
}

// Health handles GET /api/v1/health.
func (r *SystemRouter) Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
