package contracts

import (
	"context"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/dto/requests"
)

// WebhookResult reports what a processed callback produced, for logging and
// the provider acknowledgement.
type WebhookResult struct {
	Processed bool
	Duplicate bool
	OrderIDs  []string
}

type WebhookUsecase interface {
	// ProcessCollection handles inbound deposit/collection callbacks: cart
	// payments, public bookings and subscription purchases.
	ProcessCollection(ctx context.Context, envelope *models.WebhookEnvelope) (*WebhookResult, error)
	// ProcessPayout handles outbound payout settlement callbacks.
	ProcessPayout(ctx context.Context, envelope *models.WebhookEnvelope) (*WebhookResult, error)
}

type WithdrawalUsecase interface {
	InitiateWithdrawal(ctx context.Context, request *requests.CreateWithdrawal) (*models.Withdrawal, error)
}
