package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction runs fn inside a database transaction, committing on
// success and rolling back on error. Bulk insertion relies on this: a batch
// lands as one transaction, so assigned IDs stay contiguous and a
// half-written batch is never visible to the search paths.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	_, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

// WithTransactionResult is WithTransaction for callbacks that produce a
// value. The value is only returned when the transaction commits.
func WithTransactionResult[T any](ctx context.Context, db Database, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var zero T

	tx := db.Session(ctx).Begin()
	if tx.Error != nil {
		return zero, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit().Error; err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return result, nil
}
