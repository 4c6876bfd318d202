package location

import (
	"context"

	"github.com/jhleee/geo-search-api/domain/geo"
)

// Store is the durable record store for locations. Implementations keep the
// keyword and bounding-box secondary indexes synchronous with the primary
// table: a committed write is immediately visible to every search path.
type Store interface {
	// Insert persists a new location and returns it with its assigned ID.
	Insert(ctx context.Context, input Input, embeddingID *int64) (Location, error)

	// InsertBulk persists locations in one transaction and returns their
	// assigned IDs in insertion order. ID order matches what sequential
	// single inserts would have produced.
	InsertBulk(ctx context.Context, inputs []Input, embeddingIDs []*int64) ([]int64, error)

	// Get returns the location with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (Location, error)

	// Update applies a partial mutation. Returns ErrNotFound when the
	// record does not exist.
	Update(ctx context.Context, id int64, update Update) (Location, error)

	// Delete removes the record. Returns ErrNotFound when it does not
	// exist. The associated embedding entry is NOT removed; the vector
	// index has no deletion support and the orphaned entry is accepted.
	Delete(ctx context.Context, id int64) error

	// ByBoundingBox returns all records whose point falls inside the box.
	// This is a coarse pre-filter: callers must re-filter with exact
	// distance.
	ByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]Location, error)

	// ByKeyword returns records whose description or tags match the query
	// under the store's full-text ranking, best first, capped at limit.
	ByKeyword(ctx context.Context, query string, limit int) ([]Location, error)

	// ByEmbeddingIDs is the reverse lookup from embedding references to
	// records, used by vector search.
	ByEmbeddingIDs(ctx context.Context, embeddingIDs []int64) ([]Location, error)

	// List returns locations ordered by creation time descending.
	List(ctx context.Context, limit, offset int) ([]Location, error)

	// Count returns the number of stored locations.
	Count(ctx context.Context) (int64, error)
}
