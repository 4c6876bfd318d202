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

// SQL statements for the SQLite secondary indexes. The FTS5 and R-tree
// shadow tables are kept synchronous with the locations table by triggers,
// so every code path that writes locations keeps search consistent for free.
// The FTS5 module is only present when mattn/go-sqlite3 is compiled with the
// sqlite_fts5 build tag; without it setup fails with "no such module: fts5".
const (
	sqliteCreateFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS locations_fts USING fts5(
    description,
    tags,
    content='locations',
    content_rowid='id',
    tokenize='porter ascii'
)`

	sqliteCreateRTreeTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS locations_rtree USING rtree(
    id,
    min_lat, max_lat,
    min_lon, max_lon
)`

	sqliteFTSInsertTrigger = `
CREATE TRIGGER IF NOT EXISTS locations_fts_ai AFTER INSERT ON locations BEGIN
    INSERT INTO locations_fts(rowid, description, tags)
    VALUES (new.id, new.description, new.tags);
END`

	sqliteFTSDeleteTrigger = `
CREATE TRIGGER IF NOT EXISTS locations_fts_ad AFTER DELETE ON locations BEGIN
    INSERT INTO locations_fts(locations_fts, rowid, description, tags)
    VALUES ('delete', old.id, old.description, old.tags);
END`

	sqliteFTSUpdateTrigger = `
CREATE TRIGGER IF NOT EXISTS locations_fts_au AFTER UPDATE ON locations BEGIN
    INSERT INTO locations_fts(locations_fts, rowid, description, tags)
    VALUES ('delete', old.id, old.description, old.tags);
    INSERT INTO locations_fts(rowid, description, tags)
    VALUES (new.id, new.description, new.tags);
END`

	sqliteRTreeInsertTrigger = `
CREATE TRIGGER IF NOT EXISTS locations_rtree_ai AFTER INSERT ON locations BEGIN
    INSERT INTO locations_rtree(id, min_lat, max_lat, min_lon, max_lon)
    VALUES (new.id, new.latitude, new.latitude, new.longitude, new.longitude);
END`

	sqliteRTreeDeleteTrigger = `
CREATE TRIGGER IF NOT EXISTS locations_rtree_ad AFTER DELETE ON locations BEGIN
    DELETE FROM locations_rtree WHERE id = old.id;
END`

	sqliteRTreeUpdateTrigger = `
CREATE TRIGGER IF NOT EXISTS locations_rtree_au AFTER UPDATE ON locations BEGIN
    DELETE FROM locations_rtree WHERE id = old.id;
    INSERT INTO locations_rtree(id, min_lat, max_lat, min_lon, max_lon)
    VALUES (new.id, new.latitude, new.latitude, new.longitude, new.longitude);
END`

	sqliteKeywordQuery = `
SELECT rowid
FROM locations_fts
WHERE locations_fts MATCH ?
ORDER BY bm25(locations_fts)
LIMIT ?`

	sqliteBoxQuery = `
SELECT id FROM locations_rtree
WHERE min_lat >= ? AND max_lat <= ?
  AND min_lon >= ? AND max_lon <= ?`
)

// ErrSQLiteIndexInitFailed indicates SQLite FTS5/R-tree initialization failed.
var ErrSQLiteIndexInitFailed = errors.New("failed to initialize SQLite search indexes")

// sqliteSearchIndex implements secondaryIndex with an FTS5 virtual table for
// keyword ranking and an R-tree virtual table for bounding-box scans.
type sqliteSearchIndex struct {
	db     *gorm.DB
	logger *slog.Logger
}

func newSQLiteSearchIndex(db *gorm.DB, logger *slog.Logger) *sqliteSearchIndex {
	return &sqliteSearchIndex{db: db, logger: logger}
}

func (s *sqliteSearchIndex) setup(ctx context.Context) error {
	stmts := []string{
		sqliteCreateFTSTable,
		sqliteCreateRTreeTable,
		sqliteFTSInsertTrigger,
		sqliteFTSDeleteTrigger,
		sqliteFTSUpdateTrigger,
		sqliteRTreeInsertTrigger,
		sqliteRTreeDeleteTrigger,
		sqliteRTreeUpdateTrigger,
	}
	for _, stmt := range stmts {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return errors.Join(ErrSQLiteIndexInitFailed, err)
		}
	}
	return nil
}

// keywordIDs returns location IDs ranked by bm25, best first. SQLite bm25()
// returns negative scores where more negative is better, so ascending order
// is best-first.
func (s *sqliteSearchIndex) keywordIDs(ctx context.Context, query string, limit int) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Raw(sqliteKeywordQuery, escapeFTS5Query(query), limit).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("fts5 search: %w", err)
	}
	return ids, nil
}

// boxIDs returns the IDs of every point inside the box via the R-tree.
func (s *sqliteSearchIndex) boxIDs(ctx context.Context, box geo.BoundingBox) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Raw(sqliteBoxQuery, box.MinLat(), box.MaxLat(), box.MinLon(), box.MaxLon()).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("rtree scan: %w", err)
	}
	return ids, nil
}

// escapeFTS5Query escapes special characters for FTS5 queries by quoting the
// whole query as a phrase of tokens. Embedded quotes are doubled per the FTS5
// string syntax.
func escapeFTS5Query(query string) string {
	return "\"" + strings.ReplaceAll(query, "\"", "\"\"") + "\""
}
