package service

import "errors"

// Service-level sentinel errors. The API layer maps these to status codes.
var (
	// ErrEmptyBatch indicates a bulk request with no items.
	ErrEmptyBatch = errors.New("bulk request contains no items")

	// ErrBatchTooLarge indicates a bulk request above the item cap.
	ErrBatchTooLarge = errors.New("bulk request exceeds item cap")

	// ErrEmptyQuery indicates a text or vector search with no query text.
	ErrEmptyQuery = errors.New("search query is empty")
)
