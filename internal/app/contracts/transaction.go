package contracts

import "context"

// TxnRunner groups financially load-bearing writes (order creation, selection
// booking, balance credit) into one transactional unit where the store
// supports it. Side effects stay deliberately outside the unit.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
