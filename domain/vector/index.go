// Package vector defines the approximate-nearest-neighbor index contract.
package vector

// State describes the lifecycle stage of the index.
type State string

// State values. The transition from flat to quantized happens once, when the
// cumulative vector count first reaches the training threshold, and is
// irreversible for the life of the process.
const (
	// StateFlat is the untrained fallback: exact brute-force search.
	StateFlat State = "flat"
	// StateQuantized is the trained approximate index.
	StateQuantized State = "quantized"
)

// Match is one vector search hit: a stable embedding ID and its
// inner-product similarity score (higher is better).
type Match struct {
	embeddingID int64
	score       float64
}

// NewMatch creates a Match.
func NewMatch(embeddingID int64, score float64) Match {
	return Match{embeddingID: embeddingID, score: score}
}

// EmbeddingID returns the stable embedding identifier.
func (m Match) EmbeddingID() int64 { return m.embeddingID }

// Score returns the similarity score.
func (m Match) Score() float64 { return m.score }

// Index is the vector index contract. Embedding IDs are assigned
// monotonically, never reused, and survive snapshot reload. Entries are
// never removed: records deleted or re-embedded leave orphaned entries
// behind, which is accepted.
type Index interface {
	// Add appends pre-normalized vectors and returns their fresh embedding
	// IDs in order. May trigger training and a synchronous snapshot write.
	Add(vectors [][]float32) ([]int64, error)

	// Search returns up to k nearest neighbors by inner-product
	// similarity, filtered to score >= threshold, best first. An empty
	// index yields an empty slice, never an error.
	Search(query []float32, k int, threshold float64) ([]Match, error)

	// Count returns the total number of stored vectors.
	Count() int

	// State returns the current lifecycle state.
	State() State

	// Save writes a durable snapshot of the index and its ID mapping.
	Save() error
}
