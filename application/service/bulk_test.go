package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/domain/location"
)

func TestBulkIngestPersistsBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	items := []service.BulkItem{
		{Latitude: 37.5665, Longitude: 126.9780, Tags: []string{"cafe"}, Description: "quiet cafe with great espresso"},
		{Latitude: 37.5715, Longitude: 126.9780, Tags: []string{"park"}, Description: "riverside park with walking trails"},
		{Latitude: 35.1796, Longitude: 129.0756, Tags: []string{"cafe"}, Description: "harbor espresso bar"},
	}
	report, err := h.bulk.IngestBulk(ctx, items)
	require.NoError(t, err)

	assert.Len(t, report.Created(), 3)
	assert.Empty(t, report.Failures())
	assert.False(t, report.Degraded())
	assert.Equal(t, 3, h.index.Count())

	for _, id := range report.Created() {
		loc, err := h.locations.Get(ctx, id)
		require.NoError(t, err)
		_, ok := loc.EmbeddingID()
		assert.True(t, ok)
	}

	// The batch is immediately visible to every search path.
	results, err := h.search.ByText(ctx, "espresso", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// The indexed passage carries the tag tokens on top of the description,
	// so an exact-description query scores high but below 1.0.
	results, err = h.search.ByVector(ctx, "harbor espresso bar", 10, 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, report.Created()[2], results[0].Location().ID())
}

func TestBulkIngestReportsInvalidItems(t *testing.T) {
	h := newHarness(t)

	items := []service.BulkItem{
		{Latitude: 37.5665, Longitude: 126.9780, Description: "city hall"},
		{Latitude: 95.0, Longitude: 126.9780, Description: "off the map"},
		{Latitude: 37.5715, Longitude: 200.0, Description: "also off"},
	}
	report, err := h.bulk.IngestBulk(context.Background(), items)
	require.NoError(t, err)

	assert.Len(t, report.Created(), 1)
	require.Len(t, report.Failures(), 2)
	assert.Equal(t, 1, report.Failures()[0].Index)
	assert.Equal(t, 2, report.Failures()[1].Index)
	assert.NotEmpty(t, report.Failures()[0].Reason)
}

func TestBulkIngestAllItemsInvalid(t *testing.T) {
	h := newHarness(t)

	items := []service.BulkItem{
		{Latitude: 95.0, Longitude: 0.0},
		{Latitude: -95.0, Longitude: 0.0},
	}
	report, err := h.bulk.IngestBulk(context.Background(), items)
	require.NoError(t, err)

	assert.Empty(t, report.Created())
	assert.Len(t, report.Failures(), 2)
	assert.Equal(t, 0, h.index.Count())
}

func TestBulkIngestEmptyBatch(t *testing.T) {
	h := newHarness(t)

	_, err := h.bulk.IngestBulk(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrEmptyBatch)
}

func TestBulkIngestBatchTooLarge(t *testing.T) {
	h := newHarness(t)

	items := make([]service.BulkItem, 1001)
	for i := range items {
		items[i] = service.BulkItem{Latitude: 37.5, Longitude: 127.0, Description: "spot"}
	}
	_, err := h.bulk.IngestBulk(context.Background(), items)
	assert.ErrorIs(t, err, service.ErrBatchTooLarge)
}

type brokenInsertStore struct {
	location.Store
}

func (brokenInsertStore) InsertBulk(context.Context, []location.Input, []*int64) ([]int64, error) {
	return nil, errors.New("database gone away")
}

func TestBulkIngestReportsInsertFailure(t *testing.T) {
	h := newHarness(t)

	broken, err := service.NewBulkService(
		brokenInsertStore{Store: h.store}, h.index, h.embedder, h.bulkCfg, nil)
	require.NoError(t, err)
	t.Cleanup(broken.Release)

	items := []service.BulkItem{
		{Latitude: 37.5665, Longitude: 126.9780, Description: "city hall"},
		{Latitude: 95.0, Longitude: 126.9780, Description: "off the map"},
		{Latitude: 37.5715, Longitude: 126.9780, Description: "palace gate"},
	}
	report, err := broken.IngestBulk(context.Background(), items)
	require.NoError(t, err)

	// The transaction failure turns every surviving item into a reported
	// failure, merged with the validation failures in request order.
	assert.Empty(t, report.Created())
	require.Len(t, report.Failures(), 3)
	assert.Equal(t, 0, report.Failures()[0].Index)
	assert.Equal(t, 1, report.Failures()[1].Index)
	assert.Equal(t, 2, report.Failures()[2].Index)
	assert.Contains(t, report.Failures()[0].Reason, "bulk insert")
	assert.Contains(t, report.Failures()[1].Reason, "latitude")
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding backend unavailable")
}

func (failingEmbedder) EmbedPassages(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding backend unavailable")
}

func (failingEmbedder) Dimension() int { return testDimension }

func TestBulkIngestDegradesOnEmbeddingFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	broken, err := service.NewBulkService(h.store, h.index, failingEmbedder{}, h.bulkCfg, nil)
	require.NoError(t, err)
	t.Cleanup(broken.Release)

	items := []service.BulkItem{
		{Latitude: 37.5665, Longitude: 126.9780, Description: "city hall"},
		{Latitude: 37.5715, Longitude: 126.9780, Description: "palace gate"},
	}
	report, err := broken.IngestBulk(ctx, items)
	require.NoError(t, err)

	assert.True(t, report.Degraded())
	assert.Len(t, report.Created(), 2)
	assert.Equal(t, 0, h.index.Count())

	for _, id := range report.Created() {
		loc, err := h.locations.Get(ctx, id)
		require.NoError(t, err)
		_, ok := loc.EmbeddingID()
		assert.False(t, ok)
	}
}
