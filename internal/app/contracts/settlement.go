package contracts

import (
	"context"
	"medilab-service/internal/app/models"
)

type ClinicRepository interface {
	FindByID(ctx context.Context, clinicID string) (*models.Clinic, error)
	// IncrementBalance applies an atomic $inc; amount may be negative. It is
	// the only permitted balance mutation.
	IncrementBalance(ctx context.Context, clinicID string, amount float64) error
	// DebitBalanceIfSufficient decrements atomically only when the current
	// balance covers the amount, reporting whether the debit happened.
	DebitBalanceIfSufficient(ctx context.Context, clinicID string, amount float64) (bool, error)
}

type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindByPayoutRef(ctx context.Context, payoutRef string) (*models.Withdrawal, error)
	// TransitionFromProcessing updates status, provider status and history
	// only while the stored status is still processing. It reports whether
	// the transition was applied; false means the withdrawal was already
	// terminal and the caller must treat the event as a no-op.
	TransitionFromProcessing(ctx context.Context, withdrawal *models.Withdrawal) (bool, error)
}

type SubscriptionRepository interface {
	FindActiveByOwnerID(ctx context.Context, ownerID string) (*models.Subscription, error)
	FindByPaymentRef(ctx context.Context, paymentRef string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, subscription *models.Subscription) (*models.Subscription, error)
	// ExtendSubscription pushes the end date, adds allowance and appends the
	// payment ref in one update.
	ExtendSubscription(ctx context.Context, subscription *models.Subscription) error
}

type SubscriptionPlanRepository interface {
	FindByID(ctx context.Context, planID string) (*models.SubscriptionPlan, error)
}

// SettlementUsecase owns every balance-affecting decision downstream of a
// confirmed payment or payout event.
type SettlementUsecase interface {
	// CreditClinic applies the provider fee rate and credits the net amount,
	// returning what was credited.
	CreditClinic(ctx context.Context, clinicID, provider string, grossAmount float64) (float64, error)
	// ApplySubscriptionPayment extends the owner's active subscription or
	// starts a new one, recording the payment ref either way.
	ApplySubscriptionPayment(ctx context.Context, ownerID string, plan *models.SubscriptionPlan, paymentRef string) (*models.Subscription, error)
	// SettleWithdrawal applies a payout callback to the withdrawal state
	// machine. It reports whether a transition happened; false with a nil
	// error means the withdrawal was already terminal or the status was
	// non-final.
	SettleWithdrawal(ctx context.Context, envelope *models.WebhookEnvelope) (*models.Withdrawal, bool, error)
}
