package domain

import "errors"

// Ingestion-time errors are returned synchronously to the caller; everything
// downstream of a commit is logged and counted, never surfaced.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDelivery   = errors.New("delivery failed")
)
