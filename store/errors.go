package store

import "errors"

var (
	// ErrInvalidTableName indicates a ledger table name that is unsafe to interpolate into SQL.
	ErrInvalidTableName = errors.New("invalid ledger table name")

	// ErrInvalidBatch indicates a batch number below 1.
	ErrInvalidBatch = errors.New("batch must be at least 1")
)
