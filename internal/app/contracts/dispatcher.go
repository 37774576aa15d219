package contracts

import (
	"context"
	"medilab-service/internal/app/models"
)

// OrderSideEffects describes the best-effort fan-out fired after an order is
// created. Implementations must isolate failures per effect; none of them may
// fail or revert the financial outcome.
type OrderSideEffects interface {
	DispatchOrderCreated(ctx context.Context, order *models.Order, recipientEmail string)
	DispatchSubscriptionApplied(ctx context.Context, subscription *models.Subscription)
	DispatchPayloadAudit(ctx context.Context, provider, transactionID string, payload []byte)
	DispatchWithdrawalSettled(ctx context.Context, withdrawal *models.Withdrawal)
}
