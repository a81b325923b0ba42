// Package tx defines transaction management independent of the database
// driver. The implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs fn inside a transaction. A non-nil error from fn rolls the
// transaction back. Nested calls reuse the transaction carried by ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
