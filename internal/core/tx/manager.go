// Package tx defines the transaction boundary used by domain services.
package tx

import (
	"context"
)

// Manager runs a function inside a storage transaction. Multi-line
// operations (sales, dose resolutions, returns) use it so a failure on any
// line rolls back every stock mutation of the batch.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop executes the function without a transaction, used in tests.
type Nop struct{}

func (Nop) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
