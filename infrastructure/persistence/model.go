// Package persistence provides database storage implementations.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhleee/geo-search-api/domain/location"
)

// StringSlice is a custom type for JSON serialization of []string columns.
type StringSlice []string

// Scan implements sql.Scanner for reading JSON from the database.
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer for writing JSON to the database.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// LocationModel is the GORM model for the locations table. The coordinate
// pair carries a composite index for bounding-box scans on PostgreSQL; on
// SQLite the R-tree shadow table serves that role instead.
type LocationModel struct {
	ID          int64       `gorm:"column:id;primaryKey;autoIncrement"`
	Latitude    float64     `gorm:"column:latitude;index:idx_locations_lat_lon,priority:1"`
	Longitude   float64     `gorm:"column:longitude;index:idx_locations_lat_lon,priority:2"`
	Tags        StringSlice `gorm:"column:tags;type:text"`
	Description string      `gorm:"column:description;type:text"`
	EmbeddingID *int64      `gorm:"column:embedding_id;index"`
	CreatedAt   time.Time   `gorm:"column:created_at"`
}

// TableName returns the table name for GORM.
func (LocationModel) TableName() string { return "locations" }

// locationMapper maps between location.Location and LocationModel.
type locationMapper struct{}

func (locationMapper) ToDomain(m LocationModel) location.Location {
	return location.NewLocation(
		m.ID,
		m.Latitude,
		m.Longitude,
		[]string(m.Tags),
		m.Description,
		m.EmbeddingID,
		m.CreatedAt,
	)
}

func (locationMapper) ToModel(input location.Input, embeddingID *int64) LocationModel {
	return LocationModel{
		Latitude:    input.Latitude(),
		Longitude:   input.Longitude(),
		Tags:        StringSlice(input.Tags()),
		Description: input.Description(),
		EmbeddingID: embeddingID,
		CreatedAt:   time.Now().UTC(),
	}
}
