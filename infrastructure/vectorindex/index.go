// Package vectorindex implements the in-process approximate-nearest-neighbor
// index: an exact flat fallback that trains into an IVF-flat quantized index
// once enough vectors have accumulated.
package vectorindex

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jhleee/geo-search-api/domain/vector"
)

// Defaults for index construction.
const (
	// DefaultTrainThreshold is the cumulative vector count at which the
	// flat index trains into the quantized index.
	DefaultTrainThreshold = 100
	// DefaultCentroids is the number of IVF coarse-quantizer centroids.
	DefaultCentroids = 100
	// DefaultProbes is the number of inverted lists scanned per search.
	DefaultProbes = 10
	// DefaultSnapshotInterval is the number of insertions between
	// automatic snapshot writes.
	DefaultSnapshotInterval = 100
)

// Construction and usage errors.
var (
	ErrInvalidDimension  = errors.New("vector dimension must be positive")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyAdd          = errors.New("no vectors to add")
)

// Options configures an Index.
type Options struct {
	// Dimension is the fixed vector dimensionality. Required.
	Dimension int

	// TrainThreshold is the cumulative count that triggers training.
	TrainThreshold int

	// Centroids is the IVF list count used at training time.
	Centroids int

	// Probes is the number of inverted lists scanned per search.
	Probes int

	// SnapshotInterval is the number of insertions between automatic
	// snapshot writes. Zero disables auto-save.
	SnapshotInterval int

	// IndexPath and MetaPath are the snapshot file locations. Empty paths
	// disable persistence.
	IndexPath string
	MetaPath  string
}

// withDefaults fills zero fields with package defaults.
func (o Options) withDefaults() Options {
	if o.TrainThreshold == 0 {
		o.TrainThreshold = DefaultTrainThreshold
	}
	if o.Centroids == 0 {
		o.Centroids = DefaultCentroids
	}
	if o.Probes == 0 {
		o.Probes = DefaultProbes
	}
	if o.SnapshotInterval == 0 {
		o.SnapshotInterval = DefaultSnapshotInterval
	}
	return o
}

// Index holds vectors in insertion slots and maps each slot to a stable
// embedding ID. Writes are serialized behind a single mutex; searches take
// the read lock and never block each other.
//
// Entries are never removed. Records that are deleted or re-embedded leave
// orphaned entries behind; the index only ever grows. This mirrors the
// no-deletion contract of the quantized structure: reclaiming slots would
// require a full rebuild, which is deliberately unsupported.
type Index struct {
	mu     sync.RWMutex
	opts   Options
	logger *slog.Logger

	vectors [][]float32
	ids     []int64 // slot -> embedding ID
	nextID  int64
	state   vector.State
	coarse  *coarseQuantizer // nil until trained

	sinceSnapshot int
}

var _ vector.Index = (*Index)(nil)

// New creates an Index, loading a previous snapshot when one exists. A
// missing or corrupt snapshot is not an error: the index starts fresh and
// flat.
func New(opts Options, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	opts = opts.withDefaults()

	ix := &Index{
		opts:   opts,
		logger: logger,
		state:  vector.StateFlat,
	}

	if opts.IndexPath != "" && opts.MetaPath != "" {
		if err := ix.load(); err != nil {
			logger.Warn("vector index snapshot unreadable, starting fresh",
				"index_path", opts.IndexPath, "error", err)
			ix.reset()
		} else if len(ix.vectors) > 0 {
			logger.Info("vector index loaded",
				"vectors", len(ix.vectors), "state", ix.state)
		}
	}

	return ix, nil
}

// reset clears the index back to an empty flat state.
func (ix *Index) reset() {
	ix.vectors = nil
	ix.ids = nil
	ix.nextID = 0
	ix.state = vector.StateFlat
	ix.coarse = nil
	ix.sinceSnapshot = 0
}

// Add appends pre-normalized vectors, assigns fresh embedding IDs, and
// returns them in order. When the cumulative count first reaches the
// training threshold the index trains in place and transitions to the
// quantized state; the transition never reverts.
func (ix *Index) Add(vectors [][]float32) ([]int64, error) {
	if len(vectors) == 0 {
		return nil, ErrEmptyAdd
	}
	for _, v := range vectors {
		if len(v) != ix.opts.Dimension {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), ix.opts.Dimension)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state == vector.StateFlat && len(ix.vectors)+len(vectors) >= ix.opts.TrainThreshold {
		ix.train(vectors)
	}

	ids := make([]int64, len(vectors))
	for i, v := range vectors {
		slot := len(ix.vectors)
		cp := make([]float32, len(v))
		copy(cp, v)
		ix.vectors = append(ix.vectors, cp)
		ix.ids = append(ix.ids, ix.nextID)
		ids[i] = ix.nextID
		ix.nextID++

		if ix.coarse != nil {
			ix.coarse.addSlot(cp, int32(slot))
		}
	}

	ix.sinceSnapshot += len(vectors)
	if ix.opts.SnapshotInterval > 0 && ix.sinceSnapshot >= ix.opts.SnapshotInterval {
		if err := ix.saveLocked(); err != nil {
			ix.logger.Error("vector index auto-save failed", "error", err)
		} else {
			ix.sinceSnapshot = 0
		}
	}

	return ids, nil
}

// train builds the coarse quantizer from every vector held plus the incoming
// batch, padding with synthetic Gaussian vectors when the real corpus is
// smaller than the trainer minimum, then assigns existing vectors to their
// inverted lists. Called with the write lock held.
func (ix *Index) train(incoming [][]float32) {
	training := make([][]float32, 0, ix.opts.TrainThreshold)
	training = append(training, ix.vectors...)
	training = append(training, incoming...)
	if pad := ix.opts.TrainThreshold - len(training); pad > 0 {
		training = append(training, syntheticVectors(pad, ix.opts.Dimension)...)
	}

	coarse := newCoarseQuantizer(ix.opts.Dimension, ix.opts.Centroids, ix.opts.Probes)
	coarse.train(training)

	for slot, v := range ix.vectors {
		coarse.addSlot(v, int32(slot))
	}

	ix.coarse = coarse
	ix.state = vector.StateQuantized
	ix.logger.Info("vector index trained",
		"vectors", len(ix.vectors)+len(incoming),
		"centroids", ix.opts.Centroids)
}

// Search returns up to k matches with score >= threshold, best first. An
// empty index yields an empty slice.
func (ix *Index) Search(query []float32, k int, threshold float64) ([]vector.Match, error) {
	if len(query) != ix.opts.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), ix.opts.Dimension)
	}
	if k <= 0 {
		return []vector.Match{}, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		return []vector.Match{}, nil
	}

	var hits []slotScore
	if ix.state == vector.StateQuantized && ix.coarse != nil {
		hits = ix.coarse.search(query, ix.vectors, k)
	} else {
		hits = bruteForce(query, ix.vectors, k)
	}

	matches := make([]vector.Match, 0, len(hits))
	for _, h := range hits {
		if float64(h.score) < threshold {
			continue
		}
		matches = append(matches, vector.NewMatch(ix.ids[h.slot], float64(h.score)))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})

	return matches, nil
}

// Count returns the total number of stored vectors.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// State returns the current lifecycle state.
func (ix *Index) State() vector.State {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state
}

// Save writes a snapshot synchronously.
func (ix *Index) Save() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.saveLocked(); err != nil {
		return err
	}
	ix.sinceSnapshot = 0
	return nil
}
