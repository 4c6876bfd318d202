package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/jhleee/geo-search-api/domain/geo"
)

// SQL statements for the PostgreSQL secondary indexes. Full-text search uses
// a tsvector column on the locations table maintained by a trigger, in the
// same shape as a native FTS design would do it; bounding-box scans use the
// composite (latitude, longitude) index GORM migrates.
const (
	pgAddTSVColumn = `
ALTER TABLE locations ADD COLUMN IF NOT EXISTS tsv TSVECTOR`

	pgCreateTSVIndex = `
CREATE INDEX IF NOT EXISTS idx_locations_tsv ON locations USING GIN(tsv)`

	pgCreateTSVTriggerFunction = `
CREATE OR REPLACE FUNCTION locations_update_tsv()
RETURNS trigger AS $$
BEGIN
    NEW.tsv := to_tsvector('english',
        coalesce(NEW.description, '') || ' ' || coalesce(NEW.tags::text, ''));
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`

	pgCreateTSVTrigger = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_trigger WHERE tgname = 'locations_tsv_trigger'
    ) THEN
        CREATE TRIGGER locations_tsv_trigger
        BEFORE INSERT OR UPDATE ON locations
        FOR EACH ROW EXECUTE FUNCTION locations_update_tsv();
    END IF;
END;
$$`

	pgKeywordQuery = `
SELECT id
FROM locations
WHERE tsv @@ plainto_tsquery('english', ?)
ORDER BY ts_rank_cd(tsv, plainto_tsquery('english', ?)) DESC
LIMIT ?`

	pgBoxQuery = `
SELECT id FROM locations
WHERE latitude BETWEEN ? AND ?
  AND longitude BETWEEN ? AND ?`
)

// ErrPostgresIndexInitFailed indicates PostgreSQL FTS initialization failed.
var ErrPostgresIndexInitFailed = errors.New("failed to initialize PostgreSQL search indexes")

// postgresSearchIndex implements secondaryIndex with a trigger-maintained
// tsvector column for keyword ranking and coordinate range scans for
// bounding boxes.
type postgresSearchIndex struct {
	db     *gorm.DB
	logger *slog.Logger
}

func newPostgresSearchIndex(db *gorm.DB, logger *slog.Logger) *postgresSearchIndex {
	return &postgresSearchIndex{db: db, logger: logger}
}

func (p *postgresSearchIndex) setup(ctx context.Context) error {
	stmts := []string{
		pgAddTSVColumn,
		pgCreateTSVIndex,
		pgCreateTSVTriggerFunction,
		pgCreateTSVTrigger,
	}
	for _, stmt := range stmts {
		if err := p.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return errors.Join(ErrPostgresIndexInitFailed, err)
		}
	}
	return nil
}

// keywordIDs returns location IDs ranked by ts_rank_cd, best first.
func (p *postgresSearchIndex) keywordIDs(ctx context.Context, query string, limit int) ([]int64, error) {
	sanitized := sanitizeTSQuery(query)

	var ids []int64
	err := p.db.WithContext(ctx).
		Raw(pgKeywordQuery, sanitized, sanitized, limit).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("tsvector search: %w", err)
	}
	return ids, nil
}

// boxIDs returns the IDs of every point inside the box via coordinate range
// conditions on the composite index.
func (p *postgresSearchIndex) boxIDs(ctx context.Context, box geo.BoundingBox) ([]int64, error) {
	var ids []int64
	err := p.db.WithContext(ctx).
		Raw(pgBoxQuery, box.MinLat(), box.MaxLat(), box.MinLon(), box.MaxLon()).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("coordinate range scan: %w", err)
	}
	return ids, nil
}

// sanitizeTSQuery removes characters that could cause issues with plainto_tsquery.
func sanitizeTSQuery(query string) string {
	replacer := strings.NewReplacer(
		"'", " ",
		"\"", " ",
		"(", " ",
		")", " ",
		":", " ",
		"!", " ",
		"&", " ",
		"|", " ",
	)
	return replacer.Replace(query)
}
