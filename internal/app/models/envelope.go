package models

// WebhookStatus is the shared status vocabulary every provider callback is
// normalized into.
type WebhookStatus string

const (
	WebhookStatusAccepted        WebhookStatus = "accepted"
	WebhookStatusPendingApproval WebhookStatus = "pending_approval"
	WebhookStatusCompleted       WebhookStatus = "completed"
	WebhookStatusFailed          WebhookStatus = "failed"
	WebhookStatusRejected        WebhookStatus = "rejected"
	WebhookStatusUnhandled       WebhookStatus = "unhandled"
)

// WebhookFlow routes a normalized callback to its processing path.
type WebhookFlow string

const (
	WebhookFlowCart         WebhookFlow = "cart"
	WebhookFlowPublic       WebhookFlow = "public_booking"
	WebhookFlowSubscription WebhookFlow = "subscription"
	WebhookFlowPayout       WebhookFlow = "payout"
)

// WebhookEnvelope is the provider-neutral form of a callback produced by the
// classifier: everything downstream of it is provider-agnostic.
type WebhookEnvelope struct {
	Provider string
	// TransactionID is the partner-side reference used for idempotency;
	// ProviderRef is the provider-side id used when calling back out to the
	// provider's API.
	TransactionID string
	ProviderRef   string
	Status        WebhookStatus
	Flow          WebhookFlow
	Amount        float64
	FailureReason string
	Metadata      map[string]string
	RawPayload    []byte
}
