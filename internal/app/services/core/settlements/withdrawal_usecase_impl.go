package settlements

import (
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/app/services/core/orders"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/metrics"
	"medilab-service/internal/pkg/utils"
	"time"

	"go.uber.org/zap"
)

type withdrawalUsecase struct {
	Clinics     contracts.ClinicRepository
	Withdrawals contracts.WithdrawalRepository
	Gateways    map[string]contracts.PaymentGatewayClient
	Payments    config.AppPayments
	Log         *zap.Logger
}

func NewWithdrawalUsecase(
	clinics contracts.ClinicRepository,
	withdrawals contracts.WithdrawalRepository,
	gateways []contracts.PaymentGatewayClient,
	payments config.AppPayments,
	logger *zap.Logger,
) contracts.WithdrawalUsecase {
	gatewayIndex := make(map[string]contracts.PaymentGatewayClient, len(gateways))
	for _, gateway := range gateways {
		gatewayIndex[gateway.Provider()] = gateway
	}
	return &withdrawalUsecase{
		Clinics:     clinics,
		Withdrawals: withdrawals,
		Gateways:    gatewayIndex,
		Payments:    payments,
		Log:         logger,
	}
}

// InitiateWithdrawal debits the clinic balance up front, records the
// withdrawal as processing and submits the payout. The provider callback
// drives the terminal transition; a submission error refunds immediately.
func (u *withdrawalUsecase) InitiateWithdrawal(ctx context.Context, request *requests.CreateWithdrawal) (*models.Withdrawal, error) {
	gateway, ok := u.Gateways[request.Provider]
	if !ok {
		return nil, exceptions.ErrUnknownProvider(fmt.Errorf("no gateway registered for %q", request.Provider))
	}

	amount := orders.RoundCurrency(request.Amount)
	fee := u.Payments.WithdrawalFee
	debit := orders.RoundCurrency(amount + fee)

	debited, err := u.Clinics.DebitBalanceIfSufficient(ctx, request.ClinicID, debit)
	if err != nil {
		return nil, err
	}
	if !debited {
		return nil, exceptions.ErrWithdrawalInsufficientBalance(nil)
	}

	now := time.Now().UTC()
	withdrawal := &models.Withdrawal{
		ClinicID:      request.ClinicID,
		Amount:        amount,
		Fee:           fee,
		Provider:      request.Provider,
		PayoutRef:     utils.GeneratePayoutRef(),
		BankCode:      request.BankCode,
		AccountNumber: request.AccountNumber,
		Status:        models.WithdrawalStatusProcessing,
		StatusHistory: []models.StatusChange{{
			Status:    string(models.WithdrawalStatusProcessing),
			ChangedAt: now,
		}},
		CreatedAt: now,
	}
	withdrawal, err = u.Withdrawals.CreateWithdrawal(ctx, withdrawal)
	if err != nil {
		// The debit already happened; hand the money back before failing.
		u.refund(ctx, request.ClinicID, debit)
		return nil, err
	}

	result, err := gateway.SubmitPayout(ctx, &requests.PayoutSubmission{
		PayoutRef:     withdrawal.PayoutRef,
		Amount:        amount,
		BankCode:      request.BankCode,
		AccountHolder: request.AccountHolder,
		AccountNumber: request.AccountNumber,
		Description:   fmt.Sprintf("Clinic withdrawal %s", withdrawal.PayoutRef),
	})
	if err != nil {
		withdrawal.Status = models.WithdrawalStatusFailed
		withdrawal.FailureReason = "payout submission failed"
		if _, transitionErr := u.Withdrawals.TransitionFromProcessing(ctx, withdrawal); transitionErr != nil {
			u.Log.Error("withdrawalUsecase failed to mark withdrawal failed after submission error",
				zap.String(constvars.LoggingWithdrawalIDKey, withdrawal.ID),
				zap.Error(transitionErr),
			)
		} else {
			metrics.WithdrawalTransitionsTotal.WithLabelValues(string(models.WithdrawalStatusFailed)).Inc()
		}
		u.refund(ctx, request.ClinicID, debit)
		return nil, err
	}

	withdrawal.ProviderStatus = result.Status
	metrics.WithdrawalTransitionsTotal.WithLabelValues(string(models.WithdrawalStatusProcessing)).Inc()
	u.Log.Info("withdrawalUsecase submitted payout",
		zap.String(constvars.LoggingWithdrawalIDKey, withdrawal.ID),
		zap.String(constvars.LoggingClinicIDKey, request.ClinicID),
		zap.String(constvars.LoggingProviderKey, request.Provider),
		zap.Float64(constvars.LoggingAmountKey, amount),
	)
	return withdrawal, nil
}

func (u *withdrawalUsecase) refund(ctx context.Context, clinicID string, amount float64) {
	if err := u.Clinics.IncrementBalance(ctx, clinicID, amount); err != nil {
		u.Log.Error("withdrawalUsecase refund failed; balance requires manual correction",
			zap.String(constvars.LoggingClinicIDKey, clinicID),
			zap.Float64(constvars.LoggingAmountKey, amount),
			zap.Error(err),
		)
	}
}
