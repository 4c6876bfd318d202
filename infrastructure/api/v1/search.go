package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/domain/search"
	"github.com/jhleee/geo-search-api/infrastructure/api/middleware"
	"github.com/jhleee/geo-search-api/infrastructure/api/v1/dto"
)

// SearchRouter handles search API endpoints.
type SearchRouter struct {
	search *service.SearchService
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(searchSvc *service.SearchService, logger *slog.Logger) *SearchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchRouter{
		search: searchSvc,
		logger: logger,
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Unified)
	router.Post("/location", r.ByLocation)
	router.Post("/text", r.ByText)
	router.Post("/vector", r.ByVector)

	return router
}

// ByLocation handles POST /api/v1/search/location.
func (r *SearchRouter) ByLocation(w http.ResponseWriter, req *http.Request) {
	var body dto.LocationSearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	results, err := r.search.ByLocation(req.Context(), body.Latitude, body.Longitude, body.RadiusKm, body.Limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	writeResults(w, results)
}

// ByText handles POST /api/v1/search/text.
func (r *SearchRouter) ByText(w http.ResponseWriter, req *http.Request) {
	var body dto.TextSearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	results, err := r.search.ByText(req.Context(), body.Query, body.Limit)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	writeResults(w, results)
}

// ByVector handles POST /api/v1/search/vector.
func (r *SearchRouter) ByVector(w http.ResponseWriter, req *http.Request) {
	var body dto.VectorSearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	results, err := r.search.ByVector(req.Context(), body.Query, body.Limit, body.Threshold)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	writeResults(w, results)
}

// Unified handles POST /api/v1/search.
func (r *SearchRouter) Unified(w http.ResponseWriter, req *http.Request) {
	var body dto.UnifiedSearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	result, err := r.search.Unified(req.Context(), buildUnifiedQuery(body))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	modes := make([]string, len(result.Modes()))
	counts := make(map[string]int, len(modes))
	for i, mode := range result.Modes() {
		modes[i] = string(mode)
		counts[string(mode)] = result.Count(mode)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.UnifiedSearchResponse{
		Data:      searchHits(result.Results()),
		Modes:     modes,
		Counts:    counts,
		ElapsedMs: result.Elapsed().Milliseconds(),
	})
}

func buildUnifiedQuery(body dto.UnifiedSearchRequest) search.UnifiedQuery {
	var opts []search.UnifiedQueryOption
	if body.Latitude != nil && body.Longitude != nil {
		opts = append(opts, search.WithCoordinates(*body.Latitude, *body.Longitude))
	}
	if body.RadiusKm > 0 {
		opts = append(opts, search.WithRadiusKm(body.RadiusKm))
	}
	if body.Limit > 0 {
		opts = append(opts, search.WithLimit(body.Limit))
	}
	if body.Threshold > 0 {
		opts = append(opts, search.WithVectorThreshold(body.Threshold))
	}
	if len(body.Modes) > 0 {
		modes := make([]search.Mode, len(body.Modes))
		for i, m := range body.Modes {
			modes[i] = search.Mode(m)
		}
		opts = append(opts, search.WithModes(modes...))
	}
	return search.NewUnifiedQuery(body.Query, opts...)
}

func writeResults(w http.ResponseWriter, results []search.Result) {
	middleware.WriteJSON(w, http.StatusOK, dto.SearchResponse{
		Data:  searchHits(results),
		Count: len(results),
	})
}
