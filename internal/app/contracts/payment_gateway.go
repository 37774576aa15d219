package contracts

import (
	"context"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/dto/responses"
)

// PaymentGatewayClient is the narrow surface consumed from a payment rail.
// The providers themselves are external collaborators; this service never
// implements their APIs.
type PaymentGatewayClient interface {
	Provider() string
	SubmitPayout(ctx context.Context, request *requests.PayoutSubmission) (*responses.PayoutResult, error)
	GetCollectionStatus(ctx context.Context, transactionID string) (*responses.CollectionStatus, error)
	// AcceptPendingCollection confirms a two-phase collection. Rails without
	// an approval phase return an error.
	AcceptPendingCollection(ctx context.Context, transactionID string) error
}
