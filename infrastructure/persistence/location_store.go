package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/jhleee/geo-search-api/domain/geo"
	"github.com/jhleee/geo-search-api/domain/location"
	"github.com/jhleee/geo-search-api/internal/database"
)

// secondaryIndex is the dialect-specific pair of search indexes behind the
// locations table: ranked keyword lookup and bounding-box candidate scans.
type secondaryIndex interface {
	setup(ctx context.Context) error
	keywordIDs(ctx context.Context, query string, limit int) ([]int64, error)
	boxIDs(ctx context.Context, box geo.BoundingBox) ([]int64, error)
}

// LocationStore implements location.Store on GORM. Secondary indexes stay
// synchronous with the primary table: on SQLite via triggers, on PostgreSQL
// because keyword and box queries read the table itself.
type LocationStore struct {
	db     database.Database
	logger *slog.Logger
	index  secondaryIndex
	mapper locationMapper
}

var _ location.Store = (*LocationStore)(nil)

// NewLocationStore creates a LocationStore, eagerly migrating the schema and
// initializing the dialect's search indexes.
func NewLocationStore(db database.Database, logger *slog.Logger) (*LocationStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := db.GORM().AutoMigrate(&LocationModel{}); err != nil {
		return nil, fmt.Errorf("migrate locations: %w", err)
	}

	var index secondaryIndex
	if db.IsPostgres() {
		index = newPostgresSearchIndex(db.GORM(), logger)
	} else {
		index = newSQLiteSearchIndex(db.GORM(), logger)
	}
	if err := index.setup(context.Background()); err != nil {
		return nil, err
	}

	return &LocationStore{db: db, logger: logger, index: index}, nil
}

// Insert persists a new location and returns it with its assigned ID.
func (s *LocationStore) Insert(ctx context.Context, input location.Input, embeddingID *int64) (location.Location, error) {
	model := s.mapper.ToModel(input, embeddingID)
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return location.Location{}, fmt.Errorf("insert location: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// InsertBulk persists locations in one transaction, pairing each input with
// its embedding reference positionally. IDs come back in insertion order.
func (s *LocationStore) InsertBulk(ctx context.Context, inputs []location.Input, embeddingIDs []*int64) ([]int64, error) {
	if len(inputs) != len(embeddingIDs) {
		return nil, fmt.Errorf("input count %d does not match embedding ref count %d", len(inputs), len(embeddingIDs))
	}
	if len(inputs) == 0 {
		return []int64{}, nil
	}

	return database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]int64, error) {
		ids := make([]int64, len(inputs))
		for i, input := range inputs {
			model := s.mapper.ToModel(input, embeddingIDs[i])
			if err := tx.Create(&model).Error; err != nil {
				return nil, fmt.Errorf("insert location %d of %d: %w", i+1, len(inputs), err)
			}
			ids[i] = model.ID
		}
		return ids, nil
	})
}

// Get returns the location with the given ID, or location.ErrNotFound.
func (s *LocationStore) Get(ctx context.Context, id int64) (location.Location, error) {
	var model LocationModel
	err := s.db.Session(ctx).First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return location.Location{}, fmt.Errorf("location %d: %w", id, location.ErrNotFound)
	}
	if err != nil {
		return location.Location{}, fmt.Errorf("get location: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// Update applies a partial mutation atomically and returns the updated
// record.
func (s *LocationStore) Update(ctx context.Context, id int64, update location.Update) (location.Location, error) {
	return database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) (location.Location, error) {
		var model LocationModel
		err := tx.First(&model, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return location.Location{}, fmt.Errorf("location %d: %w", id, location.ErrNotFound)
		}
		if err != nil {
			return location.Location{}, fmt.Errorf("get location: %w", err)
		}

		changes := map[string]any{}
		if update.Latitude != nil {
			changes["latitude"] = *update.Latitude
		}
		if update.Longitude != nil {
			changes["longitude"] = *update.Longitude
		}
		if update.Tags != nil {
			changes["tags"] = StringSlice(update.Tags)
		}
		if update.Description != nil {
			changes["description"] = *update.Description
		}
		if update.EmbeddingID != nil {
			changes["embedding_id"] = *update.EmbeddingID
		}
		if len(changes) == 0 {
			return s.mapper.ToDomain(model), nil
		}

		if err := tx.Model(&model).Updates(changes).Error; err != nil {
			return location.Location{}, fmt.Errorf("update location: %w", err)
		}

		if err := tx.First(&model, id).Error; err != nil {
			return location.Location{}, fmt.Errorf("reload location: %w", err)
		}
		return s.mapper.ToDomain(model), nil
	})
}

// Delete removes the record. The embedding entry it referenced stays in the
// vector index as an orphan.
func (s *LocationStore) Delete(ctx context.Context, id int64) error {
	result := s.db.Session(ctx).Delete(&LocationModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("location %d: %w", id, location.ErrNotFound)
	}
	return nil
}

// ByBoundingBox returns all records whose point falls inside the box. The
// result is a coarse candidate set: callers re-filter with exact distance.
func (s *LocationStore) ByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]location.Location, error) {
	ids, err := s.index.boxIDs(ctx, box)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []location.Location{}, nil
	}
	return s.byIDs(ctx, ids)
}

// ByKeyword returns records ranked by the store's full-text relevance, best
// first, capped at limit.
func (s *LocationStore) ByKeyword(ctx context.Context, query string, limit int) ([]location.Location, error) {
	if query == "" || limit <= 0 {
		return []location.Location{}, nil
	}

	ids, err := s.index.keywordIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []location.Location{}, nil
	}
	return s.byIDs(ctx, ids)
}

// ByEmbeddingIDs is the reverse lookup from embedding references to records.
func (s *LocationStore) ByEmbeddingIDs(ctx context.Context, embeddingIDs []int64) ([]location.Location, error) {
	if len(embeddingIDs) == 0 {
		return []location.Location{}, nil
	}

	var models []LocationModel
	err := s.db.Session(ctx).
		Where("embedding_id IN ?", embeddingIDs).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find by embedding ids: %w", err)
	}

	locations := make([]location.Location, len(models))
	for i, model := range models {
		locations[i] = s.mapper.ToDomain(model)
	}
	return locations, nil
}

// List returns locations ordered by creation time descending.
func (s *LocationStore) List(ctx context.Context, limit, offset int) ([]location.Location, error) {
	var models []LocationModel
	err := s.db.Session(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	locations := make([]location.Location, len(models))
	for i, model := range models {
		locations[i] = s.mapper.ToDomain(model)
	}
	return locations, nil
}

// Count returns the number of stored locations.
func (s *LocationStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Session(ctx).Model(&LocationModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return count, nil
}

// byIDs fetches models for the given IDs and returns them in the order the
// IDs were given, so ranked lookups keep their ranking.
func (s *LocationStore) byIDs(ctx context.Context, ids []int64) ([]location.Location, error) {
	var models []LocationModel
	err := s.db.Session(ctx).Where("id IN ?", ids).Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find by ids: %w", err)
	}

	byID := make(map[int64]LocationModel, len(models))
	for _, model := range models {
		byID[model.ID] = model
	}

	locations := make([]location.Location, 0, len(ids))
	for _, id := range ids {
		model, ok := byID[id]
		if !ok {
			continue
		}
		locations = append(locations, s.mapper.ToDomain(model))
	}
	return locations, nil
}
