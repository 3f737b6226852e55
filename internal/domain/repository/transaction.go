package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by updates that matched no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write violates a unique constraint
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStaleStatus is returned by conditional status updates when the row
	// no longer has the expected status
	ErrStaleStatus = errors.New("status changed")
)

// TxManager runs a function inside one database transaction. Repositories
// called with the context passed to fn take part in that transaction. Nested
// calls join the outer transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
