package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/domain/location"
	"github.com/jhleee/geo-search-api/infrastructure/api/middleware"
	"github.com/jhleee/geo-search-api/infrastructure/api/v1/dto"
)

// LocationsRouter handles location CRUD and bulk ingestion endpoints.
type LocationsRouter struct {
	locations *service.LocationService
	bulk      *service.BulkService
	logger    *slog.Logger
}

// NewLocationsRouter creates a new LocationsRouter.
func NewLocationsRouter(locations *service.LocationService, bulk *service.BulkService, logger *slog.Logger) *LocationsRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationsRouter{
		locations: locations,
		bulk:      bulk,
		logger:    logger,
	}
}

// Routes returns the chi router for location endpoints.
func (r *LocationsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)
	router.Get("/", r.List)
	router.Post("/bulk", r.Bulk)
	router.Get("/{id}", r.Get)
	router.Put("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)

	return router
}

// Create handles POST /api/v1/locations.
func (r *LocationsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.LocationRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	input, err := location.NewInput(body.Latitude, body.Longitude, body.Tags, body.Description)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	created, err := r.locations.Create(req.Context(), input)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, locationData(created))
}

// Get handles GET /api/v1/locations/{id}.
func (r *LocationsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	loc, err := r.locations.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, locationData(loc))
}

// Update handles PUT /api/v1/locations/{id}.
func (r *LocationsRouter) Update(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	var body dto.LocationUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	updated, err := r.locations.Update(req.Context(), id, location.Update{
		Latitude:    body.Latitude,
		Longitude:   body.Longitude,
		Tags:        body.Tags,
		Description: body.Description,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, locationData(updated))
}

// Delete handles DELETE /api/v1/locations/{id}.
func (r *LocationsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if err := r.locations.Delete(req.Context(), id); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/locations with limit and offset query params.
func (r *LocationsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	limit := queryInt(req, "limit", 0)
	offset := queryInt(req, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	locs, err := r.locations.List(ctx, limit, offset)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	stats, err := r.locations.Stats(ctx)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.LocationData, len(locs))
	for i, loc := range locs {
		data[i] = locationData(loc)
	}
	middleware.WriteJSON(w, http.StatusOK, dto.LocationListResponse{
		Data:   data,
		Total:  stats.Locations(),
		Limit:  limit,
		Offset: offset,
	})
}

// Bulk handles POST /api/v1/locations/bulk.
func (r *LocationsRouter) Bulk(w http.ResponseWriter, req *http.Request) {
	var body dto.BulkRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %v", middleware.ErrMalformedRequest, err), r.logger)
		return
	}

	items := make([]service.BulkItem, len(body.Items))
	for i, item := range body.Items {
		items[i] = service.BulkItem{
			Latitude:    item.Latitude,
			Longitude:   item.Longitude,
			Tags:        item.Tags,
			Description: item.Description,
		}
	}

	report, err := r.bulk.IngestBulk(req.Context(), items)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	failures := make([]dto.BulkFailureData, len(report.Failures()))
	for i, f := range report.Failures() {
		failures[i] = dto.BulkFailureData{Index: f.Index, Reason: f.Reason}
	}
	middleware.WriteJSON(w, http.StatusCreated, dto.BulkResponse{
		Created:   report.Created(),
		Failures:  failures,
		Degraded:  report.Degraded(),
		ElapsedMs: report.Elapsed().Milliseconds(),
	})
}

func pathID(req *http.Request) (int64, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", middleware.ErrMalformedRequest, raw)
	}
	return id, nil
}
