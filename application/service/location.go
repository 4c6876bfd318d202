// Package service provides application layer services that orchestrate
// domain operations.
package service

import (
	"context"
	"log/slog"

	"github.com/jhleee/geo-search-api/domain/location"
	"github.com/jhleee/geo-search-api/domain/search"
	"github.com/jhleee/geo-search-api/domain/vector"
	"github.com/jhleee/geo-search-api/internal/config"
)

// Stats summarizes the state of the system.
type Stats struct {
	locations  int64
	embeddings int
	indexState vector.State
	model      string
}

// Locations returns the stored record count.
func (s Stats) Locations() int64 { return s.locations }

// Embeddings returns the number of vectors held by the index, orphans
// included.
func (s Stats) Embeddings() int { return s.embeddings }

// IndexState returns the vector index lifecycle state.
func (s Stats) IndexState() vector.State { return s.indexState }

// Model returns the embedding model identifier.
func (s Stats) Model() string { return s.model }

// LocationService orchestrates record CRUD, keeping the vector index in step
// with text changes. Embedding failures degrade a write to
// persist-without-reference rather than failing it: the record is always
// durable, vector search just cannot see it.
type LocationService struct {
	store     location.Store
	index     vector.Index
	embedder  search.Embedder
	searchCfg config.SearchConfig
	model     string
	logger    *slog.Logger
}

// NewLocationService creates a LocationService.
func NewLocationService(
	store location.Store,
	index vector.Index,
	embedder search.Embedder,
	searchCfg config.SearchConfig,
	model string,
	logger *slog.Logger,
) *LocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationService{
		store:     store,
		index:     index,
		embedder:  embedder,
		searchCfg: searchCfg,
		model:     model,
		logger:    logger,
	}
}

// Create validates, embeds, and persists a new location.
func (s *LocationService) Create(ctx context.Context, input location.Input) (location.Location, error) {
	ref := s.embedOne(ctx, input.EmbeddingText())
	return s.store.Insert(ctx, input, ref)
}

// Get returns the location with the given ID.
func (s *LocationService) Get(ctx context.Context, id int64) (location.Location, error) {
	return s.store.Get(ctx, id)
}

// Update applies a partial mutation. When the mutation touches searchable
// text, the combined text is re-embedded and the record points at the new
// embedding; the old index entry stays behind as an orphan.
func (s *LocationService) Update(ctx context.Context, id int64, update location.Update) (location.Location, error) {
	if err := update.Validate(); err != nil {
		return location.Location{}, err
	}
	update = update.Normalized()

	if update.Empty() {
		return s.store.Get(ctx, id)
	}

	if update.TouchesText() {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return location.Location{}, err
		}

		description := current.Description()
		if update.Description != nil {
			description = *update.Description
		}
		tags := current.Tags()
		if update.Tags != nil {
			tags = update.Tags
		}

		if ref := s.embedOne(ctx, location.EmbeddingText(description, tags)); ref != nil {
			update.EmbeddingID = ref
		}
	}

	return s.store.Update(ctx, id, update)
}

// Delete removes the record. Its embedding stays in the index as an orphan;
// vector search drops matches with no backing record.
func (s *LocationService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// List returns locations ordered by creation time descending, with the
// limit clamped to the configured maximum.
func (s *LocationService) List(ctx context.Context, limit, offset int) ([]location.Location, error) {
	if limit <= 0 {
		limit = s.searchCfg.DefaultLimit()
	}
	if limit > s.searchCfg.MaxLimit() {
		limit = s.searchCfg.MaxLimit()
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// Stats reports record count, index size, index state, and the embedding
// model in use.
func (s *LocationService) Stats(ctx context.Context) (Stats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		locations:  count,
		embeddings: s.index.Count(),
		indexState: s.index.State(),
		model:      s.model,
	}, nil
}

// embedOne embeds a single text and registers it with the index, returning
// the assigned embedding reference. Any failure is logged and degrades to a
// nil reference.
func (s *LocationService) embedOne(ctx context.Context, text string) *int64 {
	vecs, err := s.embedder.EmbedPassages(ctx, []string{text})
	if err != nil {
		s.logger.Warn("embedding failed, persisting without vector", "error", err)
		return nil
	}

	ids, err := s.index.Add(vecs)
	if err != nil {
		s.logger.Warn("vector index add failed, persisting without vector", "error", err)
		return nil
	}
	return &ids[0]
}
