package contracts

import "context"

// LockerService serializes concurrent duplicate webhook deliveries for one
// transaction id before the idempotency guard runs. The lock TTL is owned by
// the implementation so callers cannot pick an unsafe window.
type LockerService interface {
	TryLock(ctx context.Context, key string) (acquired bool, token string, err error)
	Unlock(ctx context.Context, key string, token string) error
}
