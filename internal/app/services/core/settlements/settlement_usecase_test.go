package settlements

import (
	"context"
	"errors"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/dto/responses"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// --- in-memory collaborators ---

type fakeClinicRepository struct {
	balances  map[string]float64
	creditErr error
}

func (r *fakeClinicRepository) FindByID(_ context.Context, clinicID string) (*models.Clinic, error) {
	balance, ok := r.balances[clinicID]
	if !ok {
		return nil, nil
	}
	return &models.Clinic{ID: clinicID, Balance: balance}, nil
}

func (r *fakeClinicRepository) IncrementBalance(_ context.Context, clinicID string, amount float64) error {
	if r.creditErr != nil {
		return r.creditErr
	}
	r.balances[clinicID] += amount
	return nil
}

func (r *fakeClinicRepository) DebitBalanceIfSufficient(_ context.Context, clinicID string, amount float64) (bool, error) {
	if r.balances[clinicID] < amount {
		return false, nil
	}
	r.balances[clinicID] -= amount
	return true, nil
}

type fakeWithdrawalRepository struct {
	byPayoutRef map[string]*models.Withdrawal
	createErr   error
}

func (r *fakeWithdrawalRepository) CreateWithdrawal(_ context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	withdrawal.ID = "wdr-1"
	r.byPayoutRef[withdrawal.PayoutRef] = withdrawal
	return withdrawal, nil
}

func (r *fakeWithdrawalRepository) FindByPayoutRef(_ context.Context, payoutRef string) (*models.Withdrawal, error) {
	stored, ok := r.byPayoutRef[payoutRef]
	if !ok {
		return nil, nil
	}
	// Return a copy, like the real repository decoding a fresh document;
	// callers mutating the result must not alias the stored record.
	copied := *stored
	return &copied, nil
}

func (r *fakeWithdrawalRepository) TransitionFromProcessing(_ context.Context, withdrawal *models.Withdrawal) (bool, error) {
	stored, ok := r.byPayoutRef[withdrawal.PayoutRef]
	if !ok || stored.Status != models.WithdrawalStatusProcessing {
		return false, nil
	}
	stored.Status = withdrawal.Status
	stored.ProviderStatus = withdrawal.ProviderStatus
	stored.FailureReason = withdrawal.FailureReason
	return true, nil
}

type fakeSubscriptionRepository struct {
	active       map[string]*models.Subscription
	byPaymentRef map[string]*models.Subscription
	created      []*models.Subscription
	extended     []*models.Subscription
}

func newFakeSubscriptionRepository() *fakeSubscriptionRepository {
	return &fakeSubscriptionRepository{
		active:       make(map[string]*models.Subscription),
		byPaymentRef: make(map[string]*models.Subscription),
	}
}

func (r *fakeSubscriptionRepository) FindActiveByOwnerID(_ context.Context, ownerID string) (*models.Subscription, error) {
	return r.active[ownerID], nil
}

func (r *fakeSubscriptionRepository) FindByPaymentRef(_ context.Context, paymentRef string) (*models.Subscription, error) {
	return r.byPaymentRef[paymentRef], nil
}

func (r *fakeSubscriptionRepository) CreateSubscription(_ context.Context, subscription *models.Subscription) (*models.Subscription, error) {
	subscription.ID = "sub-1"
	r.created = append(r.created, subscription)
	r.active[subscription.OwnerID] = subscription
	for _, ref := range subscription.PaymentRefs {
		r.byPaymentRef[ref] = subscription
	}
	return subscription, nil
}

func (r *fakeSubscriptionRepository) ExtendSubscription(_ context.Context, subscription *models.Subscription) error {
	r.extended = append(r.extended, subscription)
	for _, ref := range subscription.PaymentRefs {
		r.byPaymentRef[ref] = subscription
	}
	return nil
}

type fakeAlertService struct {
	alerts []*models.Alert
}

func (s *fakeAlertService) Raise(_ context.Context, alert *models.Alert) {
	s.alerts = append(s.alerts, alert)
}

type fakeGatewayClient struct {
	provider    string
	submitted   []*requests.PayoutSubmission
	submitErr   error
	payoutState string
}

func (g *fakeGatewayClient) Provider() string {
	return g.provider
}

func (g *fakeGatewayClient) SubmitPayout(_ context.Context, request *requests.PayoutSubmission) (*responses.PayoutResult, error) {
	if g.submitErr != nil {
		return nil, g.submitErr
	}
	g.submitted = append(g.submitted, request)
	status := g.payoutState
	if status == "" {
		status = "PROCESSING"
	}
	return &responses.PayoutResult{ProviderRef: "po-1", Status: status}, nil
}

func (g *fakeGatewayClient) GetCollectionStatus(_ context.Context, _ string) (*responses.CollectionStatus, error) {
	return nil, errors.New("not used")
}

func (g *fakeGatewayClient) AcceptPendingCollection(_ context.Context, _ string) error {
	return errors.New("not used")
}

func testPayments() config.AppPayments {
	return config.AppPayments{
		ReconcileTolerance: 100,
		FeeRateOy:          0.05,
		FeeRateXendit:      0.03,
		WithdrawalFee:      5000,
	}
}

// --- tests ---

func TestCreditClinic(t *testing.T) {
	t.Run("Credits the net amount after the provider fee", func(t *testing.T) {
		clinics := &fakeClinicRepository{balances: map[string]float64{"clinic-a": 0}}
		usecase := NewSettlementUsecase(clinics, &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{}}, newFakeSubscriptionRepository(), &fakeAlertService{}, testPayments(), zap.NewNop())

		net, err := usecase.CreditClinic(context.Background(), "clinic-a", "oy", 100000)
		assert.NoError(t, err)
		assert.Equal(t, float64(95000), net, "oy fee rate is 5 percent")
		assert.Equal(t, float64(95000), clinics.balances["clinic-a"])
	})

	t.Run("Fee rate follows the provider", func(t *testing.T) {
		clinics := &fakeClinicRepository{balances: map[string]float64{"clinic-a": 0}}
		usecase := NewSettlementUsecase(clinics, &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{}}, newFakeSubscriptionRepository(), &fakeAlertService{}, testPayments(), zap.NewNop())

		net, err := usecase.CreditClinic(context.Background(), "clinic-a", "xendit", 100000)
		assert.NoError(t, err)
		assert.Equal(t, float64(97000), net, "xendit fee rate is 3 percent")
	})
}

func TestApplySubscriptionPayment(t *testing.T) {
	plan := &models.SubscriptionPlan{ID: "plan-1", Name: "Monthly Reports", Price: 99000, DurationDays: 30, ReportAllowance: 5}

	t.Run("Creates a new subscription when none is active", func(t *testing.T) {
		subscriptions := newFakeSubscriptionRepository()
		usecase := NewSettlementUsecase(&fakeClinicRepository{balances: map[string]float64{}}, &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{}}, subscriptions, &fakeAlertService{}, testPayments(), zap.NewNop())

		subscription, err := usecase.ApplySubscriptionPayment(context.Background(), "patient-1", plan, "trx-sub-1")
		assert.NoError(t, err)
		assert.Len(t, subscriptions.created, 1)
		assert.Equal(t, 5, subscription.ReportAllowance)
		assert.Equal(t, []string{"trx-sub-1"}, subscription.PaymentRefs)
		assert.InDelta(t, 30*24*time.Hour.Seconds(), subscription.EndDate.Sub(subscription.StartDate).Seconds(), 1, "window should span the plan duration")
	})

	t.Run("Extends from the current end date, never from now", func(t *testing.T) {
		subscriptions := newFakeSubscriptionRepository()
		currentEnd := time.Now().UTC().Add(10 * 24 * time.Hour)
		subscriptions.active["patient-1"] = &models.Subscription{
			ID:              "sub-1",
			OwnerID:         "patient-1",
			PlanID:          "plan-1",
			StartDate:       time.Now().UTC().Add(-20 * 24 * time.Hour),
			EndDate:         currentEnd,
			ReportAllowance: 2,
			PaymentRefs:     []string{"trx-old"},
		}
		usecase := NewSettlementUsecase(&fakeClinicRepository{balances: map[string]float64{}}, &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{}}, subscriptions, &fakeAlertService{}, testPayments(), zap.NewNop())

		subscription, err := usecase.ApplySubscriptionPayment(context.Background(), "patient-1", plan, "trx-sub-2")
		assert.NoError(t, err)
		assert.Empty(t, subscriptions.created, "no new subscription while one is active")
		assert.Len(t, subscriptions.extended, 1)
		assert.Equal(t, currentEnd.Add(30*24*time.Hour), subscription.EndDate, "paid-for time must not be lost")
		assert.Equal(t, 7, subscription.ReportAllowance, "allowance accumulates")
		assert.Equal(t, []string{"trx-old", "trx-sub-2"}, subscription.PaymentRefs)
	})
}

func TestSettleWithdrawal(t *testing.T) {
	payoutEnvelope := func(status models.WebhookStatus, reason string) *models.WebhookEnvelope {
		return &models.WebhookEnvelope{
			Provider:      "oy",
			TransactionID: "WDR-1",
			Status:        status,
			Flow:          models.WebhookFlowPayout,
			FailureReason: reason,
		}
	}

	processingWithdrawal := func() *models.Withdrawal {
		return &models.Withdrawal{
			ID:        "wdr-1",
			ClinicID:  "clinic-a",
			Amount:    100000,
			Fee:       5000,
			Provider:  "oy",
			PayoutRef: "WDR-1",
			Status:    models.WithdrawalStatusProcessing,
		}
	}

	t.Run("Completed callback transitions to completed", func(t *testing.T) {
		withdrawals := &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{"WDR-1": processingWithdrawal()}}
		clinics := &fakeClinicRepository{balances: map[string]float64{"clinic-a": 0}}
		usecase := NewSettlementUsecase(clinics, withdrawals, newFakeSubscriptionRepository(), &fakeAlertService{}, testPayments(), zap.NewNop())

		withdrawal, applied, err := usecase.SettleWithdrawal(context.Background(), payoutEnvelope(models.WebhookStatusCompleted, ""))
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, models.WithdrawalStatusCompleted, withdrawal.Status)
		assert.Equal(t, float64(0), clinics.balances["clinic-a"], "a successful payout refunds nothing")
	})

	t.Run("Failed callback refunds amount plus fee and alerts", func(t *testing.T) {
		withdrawals := &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{"WDR-1": processingWithdrawal()}}
		clinics := &fakeClinicRepository{balances: map[string]float64{"clinic-a": 0}}
		alerts := &fakeAlertService{}
		usecase := NewSettlementUsecase(clinics, withdrawals, newFakeSubscriptionRepository(), alerts, testPayments(), zap.NewNop())

		withdrawal, applied, err := usecase.SettleWithdrawal(context.Background(), payoutEnvelope(models.WebhookStatusFailed, "account closed"))
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, models.WithdrawalStatusFailed, withdrawal.Status)
		assert.Equal(t, "account closed", withdrawal.FailureReason)
		assert.Equal(t, float64(105000), clinics.balances["clinic-a"], "refund covers the amount and the fee")
		assert.Len(t, alerts.alerts, 1)
		assert.Equal(t, models.AlertKindPayoutRefund, alerts.alerts[0].Kind)
	})

	t.Run("Terminal withdrawal never transitions again", func(t *testing.T) {
		completed := processingWithdrawal()
		completed.Status = models.WithdrawalStatusCompleted
		withdrawals := &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{"WDR-1": completed}}
		clinics := &fakeClinicRepository{balances: map[string]float64{"clinic-a": 0}}
		usecase := NewSettlementUsecase(clinics, withdrawals, newFakeSubscriptionRepository(), &fakeAlertService{}, testPayments(), zap.NewNop())

		withdrawal, applied, err := usecase.SettleWithdrawal(context.Background(), payoutEnvelope(models.WebhookStatusFailed, "late failure"))
		assert.NoError(t, err)
		assert.False(t, applied, "terminal states are sticky")
		assert.Equal(t, models.WithdrawalStatusCompleted, withdrawal.Status)
		assert.Equal(t, float64(0), clinics.balances["clinic-a"], "no refund on a no-op; double refunds are the failure mode here")
	})

	t.Run("Progress update leaves the state machine alone", func(t *testing.T) {
		withdrawals := &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{"WDR-1": processingWithdrawal()}}
		usecase := NewSettlementUsecase(&fakeClinicRepository{balances: map[string]float64{}}, withdrawals, newFakeSubscriptionRepository(), &fakeAlertService{}, testPayments(), zap.NewNop())

		withdrawal, applied, err := usecase.SettleWithdrawal(context.Background(), payoutEnvelope(models.WebhookStatusAccepted, ""))
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, models.WithdrawalStatusProcessing, withdrawal.Status)
	})

	t.Run("Unknown payout ref reports nothing to settle", func(t *testing.T) {
		withdrawals := &fakeWithdrawalRepository{byPayoutRef: map[string]*models.Withdrawal{}}
		usecase := NewSettlementUsecase(&fakeClinicRepository{balances: map[string]float64{}}, withdrawals, newFakeSubscriptionRepository(), &fakeAlertService{}, testPayments(), zap.NewNop())

		withdrawal, applied, err := usecase.SettleWithdrawal(context.Background(), payoutEnvelope(models.WebhookStatusCompleted, ""))
		assert.NoError(t, err)
		assert.Nil(t, withdrawal)
		assert.False(t, applied)
	})
}
