package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/infrastructure/api"
	"github.com/jhleee/geo-search-api/infrastructure/api/v1/dto"
	"github.com/jhleee/geo-search-api/infrastructure/provider"
	"github.com/jhleee/geo-search-api/infrastructure/vectorindex"
	"github.com/jhleee/geo-search-api/internal/config"
	"github.com/jhleee/geo-search-api/internal/testdb"
)

const testDimension = 64

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	store := testdb.NewStore(t)
	index, err := vectorindex.New(vectorindex.Options{
		Dimension:      testDimension,
		TrainThreshold: 10000,
	}, nil)
	require.NoError(t, err)

	gateway := provider.NewGateway(provider.NewHashEmbedder(testDimension))
	searchCfg := config.NewSearchConfig()

	locations := service.NewLocationService(store, index, gateway, searchCfg, "hash-64", nil)
	searchSvc := service.NewSearchService(store, index, gateway, searchCfg, nil)
	bulk, err := service.NewBulkService(store, index, gateway, config.NewBulkConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(bulk.Release)

	return api.NewAPIServer(locations, searchSvc, bulk, nil).Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func createLocation(t *testing.T, handler http.Handler, body dto.LocationRequest) dto.LocationData {
	t.Helper()
	w := doJSON(t, handler, http.MethodPost, "/api/v1/locations", body)
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeBody[dto.LocationData](t, w)
}

func TestCreateAndGetLocation(t *testing.T) {
	handler := newTestHandler(t)

	created := createLocation(t, handler, dto.LocationRequest{
		Latitude:    37.5665,
		Longitude:   126.9780,
		Tags:        []string{"Cafe", "quiet"},
		Description: "quiet cafe with great espresso",
	})
	assert.NotZero(t, created.ID)
	assert.Equal(t, []string{"cafe", "quiet"}, created.Tags)
	assert.NotNil(t, created.EmbeddingID)

	w := doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/locations/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[dto.LocationData](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "quiet cafe with great espresso", got.Description)
}

func TestCreateLocationRejectsInvalidCoordinates(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/locations", dto.LocationRequest{
		Latitude:  95.0,
		Longitude: 126.9780,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLocationRejectsMalformedBody(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/locations", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLocationNotFound(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/api/v1/locations/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLocationInvalidID(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodGet, "/api/v1/locations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateLocation(t *testing.T) {
	handler := newTestHandler(t)
	created := createLocation(t, handler, dto.LocationRequest{
		Latitude:    37.5665,
		Longitude:   126.9780,
		Description: "quiet cafe",
	})

	description := "bustling bakery"
	w := doJSON(t, handler, http.MethodPut, fmt.Sprintf("/api/v1/locations/%d", created.ID), dto.LocationUpdateRequest{
		Description: &description,
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[dto.LocationData](t, w)
	assert.Equal(t, "bustling bakery", updated.Description)
	assert.InDelta(t, 37.5665, updated.Latitude, 1e-9)
}

func TestDeleteLocation(t *testing.T) {
	handler := newTestHandler(t)
	created := createLocation(t, handler, dto.LocationRequest{
		Latitude:  37.5665,
		Longitude: 126.9780,
	})

	w := doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/locations/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/locations/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLocations(t *testing.T) {
	handler := newTestHandler(t)
	for i := 0; i < 3; i++ {
		createLocation(t, handler, dto.LocationRequest{
			Latitude:    37.5 + float64(i)*0.01,
			Longitude:   127.0,
			Description: "spot",
		})
	}

	w := doJSON(t, handler, http.MethodGet, "/api/v1/locations?limit=2&offset=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeBody[dto.LocationListResponse](t, w)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Total)
}

func TestBulkIngest(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/locations/bulk", dto.BulkRequest{
		Items: []dto.LocationRequest{
			{Latitude: 37.5665, Longitude: 126.9780, Description: "city hall"},
			{Latitude: 95.0, Longitude: 126.9780, Description: "off the map"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	report := decodeBody[dto.BulkResponse](t, w)
	assert.Len(t, report.Created, 1)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Index)
	assert.False(t, report.Degraded)
}

func TestBulkIngestEmptyBatch(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/locations/bulk", dto.BulkRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchByLocation(t *testing.T) {
	handler := newTestHandler(t)
	near := createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5665, Longitude: 126.9780, Description: "city hall",
	})
	createLocation(t, handler, dto.LocationRequest{
		Latitude: 35.1796, Longitude: 129.0756, Description: "harbor",
	})

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search/location", dto.LocationSearchRequest{
		Latitude: 37.5665, Longitude: 126.9780, RadiusKm: 1.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.SearchResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, near.ID, resp.Data[0].Location.ID)
	require.NotNil(t, resp.Data[0].DistanceKm)
	assert.Nil(t, resp.Data[0].Score)
}

func TestSearchByText(t *testing.T) {
	handler := newTestHandler(t)
	cafe := createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5665, Longitude: 126.9780, Description: "quiet cafe with great espresso",
	})
	createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5700, Longitude: 126.9800, Description: "riverside park",
	})

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search/text", dto.TextSearchRequest{Query: "espresso"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.SearchResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, cafe.ID, resp.Data[0].Location.ID)
}

func TestSearchByTextEmptyQuery(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search/text", dto.TextSearchRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchByVector(t *testing.T) {
	handler := newTestHandler(t)
	cafe := createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5665, Longitude: 126.9780, Description: "quiet cafe with great espresso",
	})

	w := doJSON(t, handler, http.MethodPost, "/api/v1/search/vector", dto.VectorSearchRequest{
		Query:     "quiet cafe with great espresso",
		Threshold: 0.9,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.SearchResponse](t, w)
	require.NotZero(t, resp.Count)
	assert.Equal(t, cafe.ID, resp.Data[0].Location.ID)
	require.NotNil(t, resp.Data[0].Score)
	assert.InDelta(t, 1.0, *resp.Data[0].Score, 1e-5)
}

func TestUnifiedSearch(t *testing.T) {
	handler := newTestHandler(t)
	createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5665, Longitude: 126.9780, Tags: []string{"cafe"}, Description: "quiet cafe with great espresso",
	})
	createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5715, Longitude: 126.9780, Tags: []string{"park"}, Description: "riverside park",
	})

	lat, lon := 37.5665, 126.9780
	w := doJSON(t, handler, http.MethodPost, "/api/v1/search", dto.UnifiedSearchRequest{
		Query:    "espresso",
		Latitude: &lat, Longitude: &lon,
		RadiusKm: 1.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[dto.UnifiedSearchResponse](t, w)
	assert.NotEmpty(t, resp.Data)
	assert.Contains(t, resp.Modes, "text")
	assert.Contains(t, resp.Modes, "location")
	assert.Equal(t, 1, resp.Counts["text"])
}

func TestStatsAndHealth(t *testing.T) {
	handler := newTestHandler(t)
	createLocation(t, handler, dto.LocationRequest{
		Latitude: 37.5665, Longitude: 126.9780, Description: "city hall",
	})

	w := doJSON(t, handler, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody[dto.StatsResponse](t, w)
	assert.Equal(t, int64(1), stats.Locations)
	assert.Equal(t, 1, stats.Embeddings)
	assert.Equal(t, "flat", stats.IndexState)
	assert.Equal(t, "hash-64", stats.Model)

	w = doJSON(t, handler, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
