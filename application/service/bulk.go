package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/jhleee/geo-search-api/domain/location"
	"github.com/jhleee/geo-search-api/domain/search"
	"github.com/jhleee/geo-search-api/domain/vector"
	"github.com/jhleee/geo-search-api/internal/config"
)

// BulkItem is one raw entry of a bulk ingestion request, before validation.
type BulkItem struct {
	Latitude    float64
	Longitude   float64
	Tags        []string
	Description string
}

// BulkFailure records why a single item was rejected, by its position in
// the request.
type BulkFailure struct {
	Index  int
	Reason string
}

// BulkReport summarizes the outcome of a bulk ingestion.
type BulkReport struct {
	created  []int64
	failures []BulkFailure
	degraded bool
	elapsed  time.Duration
}

// Created returns the IDs of the persisted locations, in request order.
func (r BulkReport) Created() []int64 {
	out := make([]int64, len(r.created))
	copy(out, r.created)
	return out
}

// Failures returns the per-item validation failures.
func (r BulkReport) Failures() []BulkFailure {
	out := make([]BulkFailure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Degraded reports whether embedding failed and the batch was persisted
// without vector references.
func (r BulkReport) Degraded() bool { return r.degraded }

// Elapsed returns the wall-clock duration of the ingestion.
func (r BulkReport) Elapsed() time.Duration { return r.elapsed }

// BulkService ingests batches of locations. Embedding runs concurrently in
// sub-batches on a worker pool; persistence is a single transaction so a
// batch either lands whole or not at all. Invalid items are skipped and
// reported, they never sink the batch.
type BulkService struct {
	store    location.Store
	index    vector.Index
	embedder search.Embedder
	cfg      config.BulkConfig
	pool     *ants.Pool
	logger   *slog.Logger
}

// NewBulkService creates a BulkService with a worker pool sized from cfg.
func NewBulkService(
	store location.Store,
	index vector.Index,
	embedder search.Embedder,
	cfg config.BulkConfig,
	logger *slog.Logger,
) (*BulkService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.WorkerCount()
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &BulkService{
		store:    store,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		pool:     pool,
		logger:   logger,
	}, nil
}

// Release shuts down the worker pool. The service must not be used after.
func (s *BulkService) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// IngestBulk validates, embeds, and persists a batch of locations.
func (s *BulkService) IngestBulk(ctx context.Context, items []BulkItem) (BulkReport, error) {
	start := time.Now()

	if len(items) == 0 {
		return BulkReport{}, ErrEmptyBatch
	}
	if max := s.cfg.MaxItems(); len(items) > max {
		return BulkReport{}, fmt.Errorf("%w: %d items, cap is %d", ErrBatchTooLarge, len(items), max)
	}

	inputs, indexes, failures := s.validate(items)
	if len(inputs) == 0 {
		return BulkReport{
			failures: failures,
			elapsed:  time.Since(start),
		}, nil
	}

	refs, degraded := s.embedBatch(ctx, inputs)

	ids, err := s.store.InsertBulk(ctx, inputs, refs)
	if err != nil {
		// The transaction failed as a whole: every surviving item is
		// reported failed, alongside the validation failures.
		s.logger.Error("bulk insert failed", "error", err, "items", len(inputs))
		reason := fmt.Sprintf("bulk insert: %v", err)
		for _, idx := range indexes {
			failures = append(failures, BulkFailure{Index: idx, Reason: reason})
		}
		sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
		return BulkReport{
			failures: failures,
			degraded: degraded,
			elapsed:  time.Since(start),
		}, nil
	}

	return BulkReport{
		created:  ids,
		failures: failures,
		degraded: degraded,
		elapsed:  time.Since(start),
	}, nil
}

// validate builds domain inputs from the raw items, collecting a failure
// per rejected item. The second return value maps each surviving input back
// to its position in the request.
func (s *BulkService) validate(items []BulkItem) ([]location.Input, []int, []BulkFailure) {
	inputs := make([]location.Input, 0, len(items))
	indexes := make([]int, 0, len(items))
	var failures []BulkFailure
	for i, item := range items {
		input, err := location.NewInput(item.Latitude, item.Longitude, item.Tags, item.Description)
		if err != nil {
			failures = append(failures, BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		inputs = append(inputs, input)
		indexes = append(indexes, i)
	}
	return inputs, indexes, failures
}

// embedBatch embeds the inputs in sub-batches on the worker pool and
// registers the vectors with the index, returning one reference per input.
// Any failure degrades the whole batch to nil references.
func (s *BulkService) embedBatch(ctx context.Context, inputs []location.Input) ([]*int64, bool) {
	refs := make([]*int64, len(inputs))

	batchSize := s.cfg.BatchSize()
	if batchSize < 1 {
		batchSize = config.DefaultBatchSize
	}

	vectors := make([][]float32, len(inputs))
	batchErrs := make([]error, (len(inputs)+batchSize-1)/batchSize)

	var wg sync.WaitGroup
	for b := 0; b*batchSize < len(inputs); b++ {
		lo := b * batchSize
		hi := lo + batchSize
		if hi > len(inputs) {
			hi = len(inputs)
		}
		slot := b

		wg.Add(1)
		task := func() {
			defer wg.Done()
			texts := make([]string, hi-lo)
			for i, input := range inputs[lo:hi] {
				texts[i] = input.EmbeddingText()
			}
			vecs, err := s.embedder.EmbedPassages(ctx, texts)
			if err != nil {
				batchErrs[slot] = err
				return
			}
			copy(vectors[lo:hi], vecs)
		}
		if err := s.pool.Submit(task); err != nil {
			wg.Done()
			batchErrs[slot] = err
		}
	}
	wg.Wait()

	for _, err := range batchErrs {
		if err != nil {
			s.logger.Warn("bulk embedding failed, persisting batch without vectors", "error", err)
			return refs, true
		}
	}

	ids, err := s.index.Add(vectors)
	if err != nil {
		s.logger.Warn("vector index add failed, persisting batch without vectors", "error", err)
		return refs, true
	}
	for i := range ids {
		id := ids[i]
		refs[i] = &id
	}
	return refs, false
}
