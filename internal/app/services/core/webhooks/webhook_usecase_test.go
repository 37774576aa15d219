package webhooks

import (
	"context"
	"errors"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/app/services/core/orders"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/dto/responses"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// --- in-memory collaborators ---

type fakeLocker struct {
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(_ context.Context, key string) (bool, string, error) {
	if l.held[key] {
		return false, "", nil
	}
	l.held[key] = true
	return true, "token", nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, _ string) error {
	delete(l.held, key)
	return nil
}

type fakeOrderRepository struct {
	created []*models.Order
	nextID  int
}

func (r *fakeOrderRepository) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	r.nextID++
	order.ID = fmt.Sprintf("order-%d", r.nextID)
	r.created = append(r.created, order)
	return order, nil
}

func (r *fakeOrderRepository) FindByPaymentRef(_ context.Context, provider, paymentRef string) ([]models.Order, error) {
	var found []models.Order
	for _, order := range r.created {
		if order.PaymentMethod == provider && order.PaymentRef == paymentRef {
			found = append(found, *order)
		}
	}
	return found, nil
}

type fakeSelectionRepository struct {
	pending []models.Selection
	booked  []string
}

func (r *fakeSelectionRepository) FindPendingByPatientID(_ context.Context, patientID string) ([]models.Selection, error) {
	var found []models.Selection
	for _, selection := range r.pending {
		if selection.PatientID == patientID && selection.Status == models.SelectionStatusPending {
			found = append(found, selection)
		}
	}
	return found, nil
}

func (r *fakeSelectionRepository) MarkBooked(_ context.Context, selectionIDs []string) error {
	r.booked = append(r.booked, selectionIDs...)
	for i := range r.pending {
		for _, id := range selectionIDs {
			if r.pending[i].ID == id {
				r.pending[i].Status = models.SelectionStatusBooked
			}
		}
	}
	return nil
}

type fakePendingBookingRepository struct {
	bookings map[string]*models.PendingBooking
	deleted  []string
}

func (r *fakePendingBookingRepository) FindByTransactionRef(_ context.Context, transactionRef string) (*models.PendingBooking, error) {
	return r.bookings[transactionRef], nil
}

func (r *fakePendingBookingRepository) CreatePendingBooking(_ context.Context, booking *models.PendingBooking) (*models.PendingBooking, error) {
	r.bookings[booking.TransactionRef] = booking
	return booking, nil
}

func (r *fakePendingBookingRepository) DeleteByTransactionRef(_ context.Context, transactionRef string) error {
	delete(r.bookings, transactionRef)
	r.deleted = append(r.deleted, transactionRef)
	return nil
}

type fakePlanRepository struct {
	plans map[string]*models.SubscriptionPlan
}

func (r *fakePlanRepository) FindByID(_ context.Context, planID string) (*models.SubscriptionPlan, error) {
	return r.plans[planID], nil
}

type fakeSubscriptionRepository struct {
	byPaymentRef map[string]*models.Subscription
}

func (r *fakeSubscriptionRepository) FindActiveByOwnerID(_ context.Context, _ string) (*models.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepository) FindByPaymentRef(_ context.Context, paymentRef string) (*models.Subscription, error) {
	return r.byPaymentRef[paymentRef], nil
}

func (r *fakeSubscriptionRepository) CreateSubscription(_ context.Context, subscription *models.Subscription) (*models.Subscription, error) {
	subscription.ID = "sub-1"
	for _, ref := range subscription.PaymentRefs {
		r.byPaymentRef[ref] = subscription
	}
	return subscription, nil
}

func (r *fakeSubscriptionRepository) ExtendSubscription(_ context.Context, subscription *models.Subscription) error {
	for _, ref := range subscription.PaymentRefs {
		r.byPaymentRef[ref] = subscription
	}
	return nil
}

type fakeWithdrawalRepository struct {
	byPayoutRef map[string]*models.Withdrawal
}

func (r *fakeWithdrawalRepository) CreateWithdrawal(_ context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	withdrawal.ID = "wdr-1"
	r.byPayoutRef[withdrawal.PayoutRef] = withdrawal
	return withdrawal, nil
}

func (r *fakeWithdrawalRepository) FindByPayoutRef(_ context.Context, payoutRef string) (*models.Withdrawal, error) {
	return r.byPayoutRef[payoutRef], nil
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

type creditRecord struct {
	clinicID string
	gross    float64
}

type fakeSettlement struct {
	credits       []creditRecord
	subscriptions *fakeSubscriptionRepository
	withdrawals   *fakeWithdrawalRepository
	creditErr     error
}

func (s *fakeSettlement) CreditClinic(_ context.Context, clinicID, _ string, grossAmount float64) (float64, error) {
	if s.creditErr != nil {
		return 0, s.creditErr
	}
	s.credits = append(s.credits, creditRecord{clinicID: clinicID, gross: grossAmount})
	return grossAmount, nil
}

func (s *fakeSettlement) ApplySubscriptionPayment(ctx context.Context, ownerID string, plan *models.SubscriptionPlan, paymentRef string) (*models.Subscription, error) {
	now := time.Now().UTC()
	subscription := &models.Subscription{
		OwnerID:         ownerID,
		PlanID:          plan.ID,
		StartDate:       now,
		EndDate:         now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		ReportAllowance: plan.ReportAllowance,
		PaymentRefs:     []string{paymentRef},
	}
	return s.subscriptions.CreateSubscription(ctx, subscription)
}

func (s *fakeSettlement) SettleWithdrawal(ctx context.Context, envelope *models.WebhookEnvelope) (*models.Withdrawal, bool, error) {
	withdrawal, _ := s.withdrawals.FindByPayoutRef(ctx, envelope.TransactionID)
	if withdrawal == nil {
		return nil, false, nil
	}
	if withdrawal.Status.Terminal() {
		return withdrawal, false, nil
	}
	switch envelope.Status {
	case models.WebhookStatusCompleted:
		withdrawal.Status = models.WithdrawalStatusCompleted
	case models.WebhookStatusFailed, models.WebhookStatusRejected:
		withdrawal.Status = models.WithdrawalStatusFailed
	default:
		return withdrawal, false, nil
	}
	return withdrawal, true, nil
}

type fakeGateway struct {
	provider         string
	collectionStatus *responses.CollectionStatus
	accepted         []string
	statusErr        error
}

func (g *fakeGateway) Provider() string {
	return g.provider
}

func (g *fakeGateway) SubmitPayout(_ context.Context, _ *requests.PayoutSubmission) (*responses.PayoutResult, error) {
	return &responses.PayoutResult{Status: "PROCESSING"}, nil
}

func (g *fakeGateway) GetCollectionStatus(_ context.Context, _ string) (*responses.CollectionStatus, error) {
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.collectionStatus, nil
}

func (g *fakeGateway) AcceptPendingCollection(_ context.Context, transactionID string) error {
	g.accepted = append(g.accepted, transactionID)
	return nil
}

type fakeTxnRunner struct {
	runs int
}

func (t *fakeTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	return fn(ctx)
}

type fakeSideEffects struct {
	orderCreated  []*models.Order
	emails        []string
	subscriptions []*models.Subscription
	audits        []string
	withdrawals   []*models.Withdrawal
}

func (s *fakeSideEffects) DispatchOrderCreated(_ context.Context, order *models.Order, recipientEmail string) {
	s.orderCreated = append(s.orderCreated, order)
	s.emails = append(s.emails, recipientEmail)
}

func (s *fakeSideEffects) DispatchSubscriptionApplied(_ context.Context, subscription *models.Subscription) {
	s.subscriptions = append(s.subscriptions, subscription)
}

func (s *fakeSideEffects) DispatchPayloadAudit(_ context.Context, _, transactionID string, _ []byte) {
	s.audits = append(s.audits, transactionID)
}

func (s *fakeSideEffects) DispatchWithdrawalSettled(_ context.Context, withdrawal *models.Withdrawal) {
	s.withdrawals = append(s.withdrawals, withdrawal)
}

type fakeAlerts struct {
	alerts []*models.Alert
}

func (a *fakeAlerts) Raise(_ context.Context, alert *models.Alert) {
	a.alerts = append(a.alerts, alert)
}

type fakeTests struct {
	tests map[string]*models.MedicalTest
}

func (r *fakeTests) FindByID(_ context.Context, testID string) (*models.MedicalTest, error) {
	return r.tests[testID], nil
}

// --- fixture ---

type usecaseFixture struct {
	usecase     contracts.WebhookUsecase
	locker      *fakeLocker
	orders      *fakeOrderRepository
	selections  *fakeSelectionRepository
	bookings    *fakePendingBookingRepository
	settlement  *fakeSettlement
	gateway     *fakeGateway
	txn         *fakeTxnRunner
	sideEffects *fakeSideEffects
	alerts      *fakeAlerts
}

func newUsecaseFixture() *usecaseFixture {
	logger := zap.NewNop()
	locker := newFakeLocker()
	orderRepository := &fakeOrderRepository{}
	selectionRepository := &fakeSelectionRepository{}
	bookingRepository := &fakePendingBookingRepository{bookings: make(map[string]*models.PendingBooking)}
	subscriptionRepository := &fakeSubscriptionRepository{byPaymentRef: make(map[string]*models.Subscription)}
	withdrawalRepository := &fakeWithdrawalRepository{byPayoutRef: make(map[string]*models.Withdrawal)}
	planRepository := &fakePlanRepository{plans: map[string]*models.SubscriptionPlan{
		"plan-1": {ID: "plan-1", Name: "Monthly Reports", Price: 99000, DurationDays: 30, ReportAllowance: 5},
	}}
	testRepository := &fakeTests{tests: map[string]*models.MedicalTest{
		"test-1": {ID: "test-1", ClinicID: "clinic-a", Name: "Complete Blood Count", Price: 150000, DurationMinutes: 15},
		"test-2": {ID: "test-2", ClinicID: "clinic-b", Name: "Lipid Panel", Price: 200000, DurationMinutes: 20},
	}}
	alerts := &fakeAlerts{}
	settlement := &fakeSettlement{subscriptions: subscriptionRepository, withdrawals: withdrawalRepository}
	gateway := &fakeGateway{provider: "oy"}
	txn := &fakeTxnRunner{}
	sideEffects := &fakeSideEffects{}

	guard := NewIdempotencyGuard(locker, orderRepository, subscriptionRepository, withdrawalRepository, logger)
	fanOut := orders.NewFanOutEngine(testRepository, alerts, logger)
	reconciler := orders.NewReconciler(config.AppPayments{ReconcileTolerance: 100, AdminFeeOy: 0})

	usecase := NewWebhookUsecase(
		guard,
		fanOut,
		reconciler,
		orderRepository,
		selectionRepository,
		bookingRepository,
		planRepository,
		settlement,
		[]contracts.PaymentGatewayClient{gateway},
		txn,
		sideEffects,
		alerts,
		logger,
	)

	return &usecaseFixture{
		usecase:     usecase,
		locker:      locker,
		orders:      orderRepository,
		selections:  selectionRepository,
		bookings:    bookingRepository,
		settlement:  settlement,
		gateway:     gateway,
		txn:         txn,
		sideEffects: sideEffects,
		alerts:      alerts,
	}
}

func completedCartEnvelope(amount float64) *models.WebhookEnvelope {
	return &models.WebhookEnvelope{
		Provider:      "oy",
		TransactionID: "trx-1",
		Status:        models.WebhookStatusCompleted,
		Flow:          models.WebhookFlowCart,
		Amount:        amount,
		Metadata: map[string]string{
			constvars.MetadataKeyPatientID:      "patient-1",
			constvars.MetadataKeyDeliveryMethod: constvars.DeliveryMethodInPerson,
		},
		RawPayload: []byte(`{"payment_id":"pay-1"}`),
	}
}

// --- tests ---

func TestProcessCollectionCartFlow(t *testing.T) {
	t.Run("Multi-clinic cart settles into per-clinic orders and credits", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
			{ID: "sel-2", PatientID: "patient-1", ClinicID: "clinic-b", TestID: "test-2", Quantity: 1, Status: models.SelectionStatusPending},
		}

		result, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(350000))
		assert.NoError(t, err)
		assert.True(t, result.Processed, "a settled cart payment should be processed")
		assert.Len(t, fixture.orders.created, 2, "one order per clinic")
		assert.Len(t, fixture.settlement.credits, 2, "each clinic should be credited once")
		assert.ElementsMatch(t, []string{"sel-1", "sel-2"}, fixture.selections.booked, "all selections should transition to booked")
		assert.Equal(t, 1, fixture.txn.runs, "financial writes should run in one transactional unit")
		assert.Len(t, fixture.sideEffects.orderCreated, 2, "side effects should fire once per order")
		assert.Len(t, fixture.sideEffects.audits, 1, "raw payload should be archived once")
	})

	t.Run("Replay of a settled transaction acknowledges as duplicate", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
		}

		first, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(150000))
		assert.NoError(t, err)
		assert.True(t, first.Processed)

		second, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(150000))
		assert.NoError(t, err)
		assert.True(t, second.Duplicate, "replay should short-circuit on the settled probe")
		assert.Len(t, fixture.orders.created, 1, "no second order")
		assert.Len(t, fixture.settlement.credits, 1, "no second credit")
	})

	t.Run("Concurrent delivery blocked by the lock acknowledges as duplicate", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.locker.held["txn_lock:oy:trx-1"] = true

		result, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(150000))
		assert.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Empty(t, fixture.orders.created)
	})

	t.Run("Amount mismatch is a hard stop with an alert", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
		}

		_, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(80000))
		assert.Error(t, err, "10000 short of the expected 150000 must be rejected")
		assert.Empty(t, fixture.orders.created, "no order on mismatch")
		assert.Empty(t, fixture.settlement.credits, "no credit on mismatch")
		assert.Empty(t, fixture.selections.booked, "selections stay pending on mismatch")
		assert.Len(t, fixture.alerts.alerts, 1)
		assert.Equal(t, models.AlertKindReconcileMismatch, fixture.alerts.alerts[0].Kind)
		assert.Len(t, fixture.sideEffects.audits, 1, "the mismatched payload is archived as reconciliation evidence")
	})

	t.Run("Empty cart payment acknowledges and alerts", func(t *testing.T) {
		fixture := newUsecaseFixture()

		result, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(150000))
		assert.NoError(t, err, "the provider must not retry an unfulfillable payment")
		assert.False(t, result.Processed)
		assert.Len(t, fixture.alerts.alerts, 1)
		assert.Equal(t, models.AlertKindEmptyCartPayment, fixture.alerts.alerts[0].Kind)
	})

	t.Run("Transaction failure rolls up without side effects", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
		}
		fixture.settlement.creditErr = errors.New("write conflict")

		_, err := fixture.usecase.ProcessCollection(context.Background(), completedCartEnvelope(150000))
		assert.Error(t, err)
		assert.Empty(t, fixture.sideEffects.orderCreated, "no side effects when the financial unit fails")
		assert.Len(t, fixture.sideEffects.audits, 1, "the payload is archived even when settlement fails")
	})

	t.Run("Confirmation email goes to the address stamped at checkout", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
		}
		envelope := completedCartEnvelope(150000)
		envelope.Metadata[constvars.MetadataKeyCustomerEmail] = "patient@example.com"

		result, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Equal(t, []string{"patient@example.com"}, fixture.sideEffects.emails, "the cart receipt uses the metadata email")
	})
}

func TestProcessCollectionStatusHandling(t *testing.T) {
	t.Run("Unhandled status acknowledges without work", func(t *testing.T) {
		fixture := newUsecaseFixture()
		envelope := completedCartEnvelope(150000)
		envelope.Status = models.WebhookStatusUnhandled

		result, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.NoError(t, err)
		assert.False(t, result.Processed)
		assert.False(t, result.Duplicate)
		assert.Empty(t, fixture.orders.created)
	})

	t.Run("Intermediate accepted status acknowledges without locking", func(t *testing.T) {
		fixture := newUsecaseFixture()
		envelope := completedCartEnvelope(150000)
		envelope.Status = models.WebhookStatusAccepted

		result, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.NoError(t, err)
		assert.False(t, result.Processed)
		assert.Empty(t, fixture.locker.held, "no lock should be taken for intermediate statuses")
	})

	t.Run("Failed public payment deletes the staged booking eagerly", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.bookings.bookings["trx-pub-1"] = &models.PendingBooking{TransactionRef: "trx-pub-1", ClinicID: "clinic-a", TestID: "test-1", DeliveryMethod: constvars.DeliveryMethodInPerson}
		envelope := &models.WebhookEnvelope{
			Provider:      "xendit",
			TransactionID: "trx-pub-1",
			Status:        models.WebhookStatusRejected,
			Flow:          models.WebhookFlowPublic,
		}

		result, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.NoError(t, err)
		assert.False(t, result.Processed)
		assert.Contains(t, fixture.bookings.deleted, "trx-pub-1")
	})

	t.Run("Failed cart payment leaves selections pending", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
		}
		envelope := completedCartEnvelope(150000)
		envelope.Status = models.WebhookStatusFailed

		result, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.NoError(t, err)
		assert.False(t, result.Processed)
		assert.Empty(t, fixture.selections.booked, "failed payment must not book the cart")
		assert.Equal(t, models.SelectionStatusPending, fixture.selections.pending[0].Status)
		assert.Len(t, fixture.sideEffects.audits, 1, "failed callbacks are archived too")
	})
}

func TestProcessCollectionPendingApproval(t *testing.T) {
	pendingEnvelope := func() *models.WebhookEnvelope {
		envelope := completedCartEnvelope(150000)
		envelope.Status = models.WebhookStatusPendingApproval
		envelope.ProviderRef = "pay-1"
		return envelope
	}

	t.Run("Accepts the collection and waits for completion", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.gateway.collectionStatus = &responses.CollectionStatus{TransactionID: "pay-1", Status: "WAITING_APPROVAL"}

		result, err := fixture.usecase.ProcessCollection(context.Background(), pendingEnvelope())
		assert.NoError(t, err)
		assert.False(t, result.Processed, "settlement waits for the follow-up callback")
		assert.Equal(t, []string{"pay-1"}, fixture.gateway.accepted, "the two-phase accept should be called once")
		assert.Empty(t, fixture.orders.created)
	})

	t.Run("Already complete collection settles immediately", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.selections.pending = []models.Selection{
			{ID: "sel-1", PatientID: "patient-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1, Status: models.SelectionStatusPending},
		}
		fixture.gateway.collectionStatus = &responses.CollectionStatus{TransactionID: "pay-1", Status: "COMPLETE", Amount: 150000}

		envelope := pendingEnvelope()
		envelope.Amount = 0 // the approval callback does not carry the settled amount

		result, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.NoError(t, err)
		assert.True(t, result.Processed, "a completed collection should settle on this callback")
		assert.Empty(t, fixture.gateway.accepted, "no accept call when the money already settled")
		assert.Len(t, fixture.orders.created, 1)
	})

	t.Run("Status probe failure propagates for provider retry", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.gateway.statusErr = errors.New("gateway timeout")

		_, err := fixture.usecase.ProcessCollection(context.Background(), pendingEnvelope())
		assert.Error(t, err)
		assert.Empty(t, fixture.orders.created)
	})
}

func TestProcessCollectionPublicBooking(t *testing.T) {
	publicEnvelope := func() *models.WebhookEnvelope {
		return &models.WebhookEnvelope{
			Provider:      "xendit",
			TransactionID: "trx-pub-1",
			Status:        models.WebhookStatusCompleted,
			Flow:          models.WebhookFlowPublic,
			Amount:        150000,
			RawPayload:    []byte(`{"id":"inv-1"}`),
		}
	}

	t.Run("Settles the staged booking into a single order", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.bookings.bookings["trx-pub-1"] = &models.PendingBooking{
			TransactionRef: "trx-pub-1",
			ClinicID:       "clinic-a",
			TestID:         "test-1",
			DeliveryMethod: constvars.DeliveryMethodInPerson,
			Booker:         models.BookerIdentity{Name: "Jane Walker", Email: "jane@example.com"},
		}

		result, err := fixture.usecase.ProcessCollection(context.Background(), publicEnvelope())
		assert.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Len(t, fixture.orders.created, 1)
		assert.Contains(t, fixture.bookings.deleted, "trx-pub-1", "the staged record is consumed inside the transaction")
		assert.Len(t, fixture.settlement.credits, 1)
		assert.Equal(t, []string{"jane@example.com"}, fixture.sideEffects.emails, "receipt email goes to the booker")
	})

	t.Run("Missing staged booking surfaces a no-retry error and alerts", func(t *testing.T) {
		fixture := newUsecaseFixture()

		_, err := fixture.usecase.ProcessCollection(context.Background(), publicEnvelope())
		assert.Error(t, err, "a vanished staged booking cannot be settled")
		assert.Empty(t, fixture.orders.created)
		assert.Len(t, fixture.alerts.alerts, 1, "money without a staged record needs an operator")
		assert.Equal(t, models.AlertKindMissingReference, fixture.alerts.alerts[0].Kind)
		assert.Equal(t, "trx-pub-1", fixture.alerts.alerts[0].TransactionID)
	})
}

func TestProcessCollectionSubscription(t *testing.T) {
	subscriptionEnvelope := func() *models.WebhookEnvelope {
		return &models.WebhookEnvelope{
			Provider:      "oy",
			TransactionID: "trx-sub-1",
			Status:        models.WebhookStatusCompleted,
			Flow:          models.WebhookFlowSubscription,
			Amount:        99000,
			Metadata: map[string]string{
				constvars.MetadataKeyPatientID: "patient-1",
				constvars.MetadataKeyPlanID:    "plan-1",
				constvars.MetadataKeyType:      constvars.MetadataTypeSubscription,
			},
			RawPayload: []byte(`{"payment_id":"pay-sub"}`),
		}
	}

	t.Run("Applies the plan and dispatches the side effect", func(t *testing.T) {
		fixture := newUsecaseFixture()

		result, err := fixture.usecase.ProcessCollection(context.Background(), subscriptionEnvelope())
		assert.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Len(t, fixture.sideEffects.subscriptions, 1)
	})

	t.Run("Replay short-circuits on the recorded payment ref", func(t *testing.T) {
		fixture := newUsecaseFixture()

		first, err := fixture.usecase.ProcessCollection(context.Background(), subscriptionEnvelope())
		assert.NoError(t, err)
		assert.True(t, first.Processed)

		second, err := fixture.usecase.ProcessCollection(context.Background(), subscriptionEnvelope())
		assert.NoError(t, err)
		assert.True(t, second.Duplicate)
		assert.Len(t, fixture.sideEffects.subscriptions, 1, "no second extension")
	})

	t.Run("Unknown plan surfaces an error and alerts", func(t *testing.T) {
		fixture := newUsecaseFixture()
		envelope := subscriptionEnvelope()
		envelope.Metadata[constvars.MetadataKeyPlanID] = "plan-gone"

		_, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.Error(t, err)
		assert.Len(t, fixture.alerts.alerts, 1, "money against a deleted plan needs an operator")
		assert.Equal(t, models.AlertKindMissingReference, fixture.alerts.alerts[0].Kind)
		assert.Equal(t, "plan-gone", fixture.alerts.alerts[0].Details["plan_id"])
	})

	t.Run("Plan price mismatch rejected", func(t *testing.T) {
		fixture := newUsecaseFixture()
		envelope := subscriptionEnvelope()
		envelope.Amount = 50000

		_, err := fixture.usecase.ProcessCollection(context.Background(), envelope)
		assert.Error(t, err)
		assert.Empty(t, fixture.sideEffects.subscriptions)
	})
}

func TestProcessPayout(t *testing.T) {
	payoutEnvelope := func(status models.WebhookStatus) *models.WebhookEnvelope {
		return &models.WebhookEnvelope{
			Provider:      "oy",
			TransactionID: "WDR-1",
			Status:        status,
			Flow:          models.WebhookFlowPayout,
			RawPayload:    []byte(`{"payout_id":"po-1"}`),
		}
	}

	t.Run("Completed payout settles the withdrawal", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.settlement.withdrawals.byPayoutRef["WDR-1"] = &models.Withdrawal{
			ID: "wdr-1", PayoutRef: "WDR-1", ClinicID: "clinic-a", Status: models.WithdrawalStatusProcessing,
		}

		result, err := fixture.usecase.ProcessPayout(context.Background(), payoutEnvelope(models.WebhookStatusCompleted))
		assert.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Len(t, fixture.sideEffects.withdrawals, 1)
		assert.Len(t, fixture.sideEffects.audits, 1)
	})

	t.Run("Replay against a terminal withdrawal acknowledges as duplicate", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.settlement.withdrawals.byPayoutRef["WDR-1"] = &models.Withdrawal{
			ID: "wdr-1", PayoutRef: "WDR-1", ClinicID: "clinic-a", Status: models.WithdrawalStatusCompleted,
		}

		result, err := fixture.usecase.ProcessPayout(context.Background(), payoutEnvelope(models.WebhookStatusFailed))
		assert.NoError(t, err)
		assert.True(t, result.Duplicate, "a terminal withdrawal never transitions again")
		assert.Empty(t, fixture.sideEffects.withdrawals, "no side effects on a no-op")
	})

	t.Run("Unknown payout reference acknowledges without work", func(t *testing.T) {
		fixture := newUsecaseFixture()

		result, err := fixture.usecase.ProcessPayout(context.Background(), payoutEnvelope(models.WebhookStatusCompleted))
		assert.NoError(t, err)
		assert.False(t, result.Processed)
		assert.False(t, result.Duplicate)
	})

	t.Run("Progress update acknowledges without transition", func(t *testing.T) {
		fixture := newUsecaseFixture()
		fixture.settlement.withdrawals.byPayoutRef["WDR-1"] = &models.Withdrawal{
			ID: "wdr-1", PayoutRef: "WDR-1", ClinicID: "clinic-a", Status: models.WithdrawalStatusProcessing,
		}

		result, err := fixture.usecase.ProcessPayout(context.Background(), payoutEnvelope(models.WebhookStatusAccepted))
		assert.NoError(t, err)
		assert.False(t, result.Processed)
		assert.False(t, result.Duplicate)
		assert.Equal(t, models.WithdrawalStatusProcessing, fixture.settlement.withdrawals.byPayoutRef["WDR-1"].Status)
	})
}
