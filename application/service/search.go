package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhleee/geo-search-api/domain/geo"
	"github.com/jhleee/geo-search-api/domain/location"
	"github.com/jhleee/geo-search-api/domain/search"
	"github.com/jhleee/geo-search-api/domain/vector"
	"github.com/jhleee/geo-search-api/internal/config"
)

// UnifiedResult carries the fused result list for a unified search along
// with per-mode diagnostics.
type UnifiedResult struct {
	results []search.Result
	modes   []search.Mode
	counts  map[search.Mode]int
	elapsed time.Duration
}

// Results returns the fused, ranked result list.
func (r UnifiedResult) Results() []search.Result {
	out := make([]search.Result, len(r.results))
	copy(out, r.results)
	return out
}

// Modes returns the modes that actually ran.
func (r UnifiedResult) Modes() []search.Mode {
	out := make([]search.Mode, len(r.modes))
	copy(out, r.modes)
	return out
}

// Count returns how many raw hits the given mode produced before fusion.
func (r UnifiedResult) Count(mode search.Mode) int { return r.counts[mode] }

// Elapsed returns the wall-clock duration of the search.
func (r UnifiedResult) Elapsed() time.Duration { return r.elapsed }

// SearchService answers location, text, vector, and unified queries. The
// individual modes are also the building blocks of the unified path, which
// fans them out concurrently and fuses the streams.
type SearchService struct {
	store    location.Store
	index    vector.Index
	embedder search.Embedder
	fusion   search.Fusion
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(
	store location.Store,
	index vector.Index,
	embedder search.Embedder,
	cfg config.SearchConfig,
	logger *slog.Logger,
) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		store:    store,
		index:    index,
		embedder: embedder,
		fusion:   search.NewFusion(),
		cfg:      cfg,
		logger:   logger,
	}
}

// ByLocation returns locations within radiusKm of the given point, nearest
// first. The bounding box prefilter over-selects at the corners, so every
// candidate is re-checked with the exact great-circle distance.
func (s *SearchService) ByLocation(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]search.Result, error) {
	if err := location.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = s.cfg.DefaultRadiusKm()
	}
	if radiusKm > s.cfg.MaxRadiusKm() {
		radiusKm = s.cfg.MaxRadiusKm()
	}
	limit = s.clampLimit(limit)

	candidates, err := s.store.ByBoundingBox(ctx, geo.NewBoundingBox(lat, lon, radiusKm))
	if err != nil {
		return nil, fmt.Errorf("bounding box search: %w", err)
	}

	results := make([]search.Result, 0, len(candidates))
	for _, loc := range candidates {
		distance := geo.Haversine(lat, lon, loc.Latitude(), loc.Longitude())
		if distance <= radiusKm {
			results = append(results, search.NewDistanceResult(loc, distance))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		di, _ := results[i].DistanceKm()
		dj, _ := results[j].DistanceKm()
		return di < dj
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ByText returns locations matching the keyword query, relevance order
// preserved from the full-text index.
func (s *SearchService) ByText(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit = s.clampLimit(limit)

	locs, err := s.store.ByKeyword(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]search.Result, 0, len(locs))
	for _, loc := range locs {
		results = append(results, search.NewTextResult(loc))
	}
	return results, nil
}

// ByVector embeds the query and returns semantically similar locations with
// their cosine similarity scores. Matches whose embedding no longer backs a
// live record are dropped, so the index is asked for extra candidates.
func (s *SearchService) ByVector(ctx context.Context, query string, limit int, threshold float64) ([]search.Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit = s.clampLimit(limit)
	if threshold <= 0 {
		threshold = s.cfg.SimilarityThreshold()
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.index.Search(queryVec, limit*2, threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(matches) == 0 {
		return []search.Result{}, nil
	}

	embeddingIDs := make([]int64, len(matches))
	for i, m := range matches {
		embeddingIDs[i] = m.EmbeddingID()
	}
	locs, err := s.store.ByEmbeddingIDs(ctx, embeddingIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve vector matches: %w", err)
	}

	byEmbedding := make(map[int64]location.Location, len(locs))
	for _, loc := range locs {
		if id, ok := loc.EmbeddingID(); ok {
			byEmbedding[id] = loc
		}
	}

	results := make([]search.Result, 0, len(matches))
	for _, m := range matches {
		loc, ok := byEmbedding[m.EmbeddingID()]
		if !ok {
			continue
		}
		results = append(results, search.NewScoredResult(loc, m.Score()))
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// Unified fans the enabled modes out concurrently and fuses their streams
// into one ranked list. A failing stream is logged and contributes nothing;
// the others still answer.
func (s *SearchService) Unified(ctx context.Context, query search.UnifiedQuery) (UnifiedResult, error) {
	start := time.Now()
	limit := s.clampLimit(query.Limit())

	var (
		textResults     []search.Result
		vectorResults   []search.Result
		locationResults []search.Result
	)

	g, gctx := errgroup.WithContext(ctx)

	runText := query.UseText() && query.Text() != ""
	if runText {
		g.Go(func() error {
			results, err := s.ByText(gctx, query.Text(), limit)
			if err != nil {
				s.logger.Warn("text stream failed during unified search", "error", err)
				return nil
			}
			textResults = results
			return nil
		})
	}

	runVector := query.UseVector() && query.Text() != ""
	if runVector {
		threshold := query.VectorThreshold()
		if threshold <= 0 {
			threshold = s.cfg.UnifiedThreshold()
		}
		g.Go(func() error {
			results, err := s.ByVector(gctx, query.Text(), limit, threshold)
			if err != nil {
				s.logger.Warn("vector stream failed during unified search", "error", err)
				return nil
			}
			vectorResults = results
			return nil
		})
	}

	lat, lon, hasCoords := query.Coordinates()
	runLocation := query.UseLocation() && hasCoords
	if runLocation {
		g.Go(func() error {
			results, err := s.ByLocation(gctx, lat, lon, query.RadiusKm(), limit)
			if err != nil {
				s.logger.Warn("location stream failed during unified search", "error", err)
				return nil
			}
			locationResults = results
			return nil
		})
	}

	if !runText && !runVector && !runLocation {
		return UnifiedResult{}, ErrEmptyQuery
	}

	// Stream goroutines swallow their own errors, so Wait cannot fail.
	_ = g.Wait()

	fused := s.fusion.Unify(textResults, vectorResults, locationResults)
	if len(fused) > limit {
		fused = fused[:limit]
	}

	modes := make([]search.Mode, 0, 3)
	counts := make(map[search.Mode]int, 3)
	if runText {
		modes = append(modes, search.ModeText)
		counts[search.ModeText] = len(textResults)
	}
	if runVector {
		modes = append(modes, search.ModeVector)
		counts[search.ModeVector] = len(vectorResults)
	}
	if runLocation {
		modes = append(modes, search.ModeLocation)
		counts[search.ModeLocation] = len(locationResults)
	}

	return UnifiedResult{
		results: fused,
		modes:   modes,
		counts:  counts,
		elapsed: time.Since(start),
	}, nil
}

func (s *SearchService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit()
	}
	if limit > s.cfg.MaxLimit() {
		return s.cfg.MaxLimit()
	}
	return limit
}
