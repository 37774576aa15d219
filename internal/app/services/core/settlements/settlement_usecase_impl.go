package settlements

import (
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/app/services/core/orders"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

type settlementUsecase struct {
	Clinics       contracts.ClinicRepository
	Withdrawals   contracts.WithdrawalRepository
	Subscriptions contracts.SubscriptionRepository
	Alerts        contracts.AlertService
	Payments      config.AppPayments
	Log           *zap.Logger
}

func NewSettlementUsecase(
	clinics contracts.ClinicRepository,
	withdrawals contracts.WithdrawalRepository,
	subscriptions contracts.SubscriptionRepository,
	alerts contracts.AlertService,
	payments config.AppPayments,
	logger *zap.Logger,
) contracts.SettlementUsecase {
	return &settlementUsecase{
		Clinics:       clinics,
		Withdrawals:   withdrawals,
		Subscriptions: subscriptions,
		Alerts:        alerts,
		Payments:      payments,
		Log:           logger,
	}
}

func (u *settlementUsecase) feeRate(provider string) float64 {
	if provider == constvars.ProviderXendit {
		return u.Payments.FeeRateXendit
	}
	return u.Payments.FeeRateOy
}

func (u *settlementUsecase) CreditClinic(ctx context.Context, clinicID, provider string, grossAmount float64) (float64, error) {
	net := orders.RoundCurrency(grossAmount * (1 - u.feeRate(provider)))
	if err := u.Clinics.IncrementBalance(ctx, clinicID, net); err != nil {
		return 0, err
	}
	metrics.ClinicCreditsTotal.Inc()
	u.Log.Info("settlementUsecase credited clinic",
		zap.String(constvars.LoggingClinicIDKey, clinicID),
		zap.String(constvars.LoggingProviderKey, provider),
		zap.Float64(constvars.LoggingAmountKey, net),
	)
	return net, nil
}

func (u *settlementUsecase) ApplySubscriptionPayment(ctx context.Context, ownerID string, plan *models.SubscriptionPlan, paymentRef string) (*models.Subscription, error) {
	now := time.Now().UTC()
	extension := time.Duration(plan.DurationDays) * 24 * time.Hour

	existing, err := u.Subscriptions.FindActiveByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Paid-for time is never lost: the new window starts where the
		// current one ends.
		existing.EndDate = existing.EndDate.Add(extension)
		existing.ReportAllowance += plan.ReportAllowance
		existing.PaymentRefs = append(existing.PaymentRefs, paymentRef)
		if err := u.Subscriptions.ExtendSubscription(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	subscription := &models.Subscription{
		OwnerID:         ownerID,
		PlanID:          plan.ID,
		StartDate:       now,
		EndDate:         now.Add(extension),
		ReportAllowance: plan.ReportAllowance,
		PaymentRefs:     []string{paymentRef},
		CreatedAt:       now,
	}
	return u.Subscriptions.CreateSubscription(ctx, subscription)
}

func (u *settlementUsecase) SettleWithdrawal(ctx context.Context, envelope *models.WebhookEnvelope) (*models.Withdrawal, bool, error) {
	withdrawal, err := u.Withdrawals.FindByPayoutRef(ctx, envelope.TransactionID)
	if err != nil {
		return nil, false, err
	}
	if withdrawal == nil {
		return nil, false, nil
	}
	if withdrawal.Status.Terminal() {
		return withdrawal, false, nil
	}

	var target models.WithdrawalStatus
	switch envelope.Status {
	case models.WebhookStatusCompleted:
		target = models.WithdrawalStatusCompleted
	case models.WebhookStatusFailed, models.WebhookStatusRejected:
		target = models.WithdrawalStatusFailed
	default:
		// Progress updates are acknowledged without touching the state
		// machine.
		return withdrawal, false, nil
	}

	withdrawal.Status = target
	withdrawal.ProviderStatus = string(envelope.Status)
	withdrawal.FailureReason = envelope.FailureReason
	applied, err := u.Withdrawals.TransitionFromProcessing(ctx, withdrawal)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		// Lost the race against a concurrent delivery; the first writer's
		// terminal state stands.
		return withdrawal, false, nil
	}
	metrics.WithdrawalTransitionsTotal.WithLabelValues(string(target)).Inc()

	if target == models.WithdrawalStatusFailed {
		refund := orders.RoundCurrency(withdrawal.Amount + withdrawal.Fee)
		if err := u.Clinics.IncrementBalance(ctx, withdrawal.ClinicID, refund); err != nil {
			return nil, false, err
		}
		u.Alerts.Raise(ctx, &models.Alert{
			Kind:          models.AlertKindPayoutRefund,
			Provider:      withdrawal.Provider,
			TransactionID: withdrawal.PayoutRef,
			Message:       fmt.Sprintf("payout %s failed; refunded %.2f (amount + fee) to clinic %s", withdrawal.PayoutRef, refund, withdrawal.ClinicID),
			Details: map[string]string{
				"clinic_id":      withdrawal.ClinicID,
				"failure_reason": withdrawal.FailureReason,
			},
			CreatedAt: time.Now().UTC(),
		})
	}

	u.Log.Info("settlementUsecase settled withdrawal",
		zap.String(constvars.LoggingWithdrawalIDKey, withdrawal.ID),
		zap.String("status", string(target)),
	)
	return withdrawal, true, nil
}
