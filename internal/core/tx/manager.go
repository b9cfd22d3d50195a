// Package tx is the unit-of-work contract shared by the ledger services and
// the storage drivers.
package tx

import (
	"context"
)

// Manager runs a ledger operation as one unit of work. The postgres driver
// maps it to BEGIN/COMMIT and the memory store to its write lock and undo log.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back every
	// stock, balance and document write otherwise. A call made with a
	// context that already carries a transaction joins it.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager is implemented by drivers that can pin a snapshot, so the
// party ledger view reads the balance and its events consistently.
type ReadOnlyManager interface {
	Manager

	// ReadOnly runs fn without write access.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
