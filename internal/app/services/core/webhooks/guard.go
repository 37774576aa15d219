package webhooks

import (
	"context"
	"fmt"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"

	"go.uber.org/zap"
)

// IdempotencyGuard is the first of two defense lines against duplicate
// deliveries: a short redis lock serializes concurrent handlers for one
// transaction, and a terminal-outcome probe short-circuits callbacks whose
// work already happened. The unique storage indexes are the second line.
type IdempotencyGuard struct {
	Locker        contracts.LockerService
	Orders        contracts.OrderRepository
	Subscriptions contracts.SubscriptionRepository
	Withdrawals   contracts.WithdrawalRepository
	Log           *zap.Logger
}

func NewIdempotencyGuard(
	locker contracts.LockerService,
	orders contracts.OrderRepository,
	subscriptions contracts.SubscriptionRepository,
	withdrawals contracts.WithdrawalRepository,
	logger *zap.Logger,
) *IdempotencyGuard {
	return &IdempotencyGuard{
		Locker:        locker,
		Orders:        orders,
		Subscriptions: subscriptions,
		Withdrawals:   withdrawals,
		Log:           logger,
	}
}

func lockKey(envelope *models.WebhookEnvelope) string {
	return fmt.Sprintf("txn_lock:%s:%s", envelope.Provider, envelope.TransactionID)
}

// Acquire takes the per-transaction lock. A held lock means another delivery
// of the same transaction is mid-flight; the caller acks it as a duplicate.
func (g *IdempotencyGuard) Acquire(ctx context.Context, envelope *models.WebhookEnvelope) (bool, string, error) {
	return g.Locker.TryLock(ctx, lockKey(envelope))
}

func (g *IdempotencyGuard) Release(ctx context.Context, envelope *models.WebhookEnvelope, token string) {
	if err := g.Locker.Unlock(ctx, lockKey(envelope), token); err != nil {
		// The lock TTL bounds the damage; a failed release only delays the
		// next delivery of this transaction.
		g.Log.Warn("IdempotencyGuard failed to release lock",
			zap.String("lock_key", lockKey(envelope)),
			zap.Error(err),
		)
	}
}

// AlreadySettled probes for a durable outcome of this transaction. It checks
// the store rather than a processed-flag cache, so replayed callbacks from
// weeks ago still short-circuit.
func (g *IdempotencyGuard) AlreadySettled(ctx context.Context, envelope *models.WebhookEnvelope) (bool, error) {
	switch envelope.Flow {
	case models.WebhookFlowSubscription:
		subscription, err := g.Subscriptions.FindByPaymentRef(ctx, envelope.TransactionID)
		if err != nil {
			return false, err
		}
		return subscription != nil, nil
	case models.WebhookFlowPayout:
		withdrawal, err := g.Withdrawals.FindByPayoutRef(ctx, envelope.TransactionID)
		if err != nil {
			return false, err
		}
		return withdrawal != nil && withdrawal.Status.Terminal(), nil
	default:
		existing, err := g.Orders.FindByPaymentRef(ctx, envelope.Provider, envelope.TransactionID)
		if err != nil {
			return false, err
		}
		return len(existing) > 0, nil
	}
}
