package webhooks

import (
	"context"
	"fmt"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/app/services/core/orders"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

type webhookUsecase struct {
	Guard           *IdempotencyGuard
	FanOut          *orders.FanOutEngine
	Reconciler      *orders.Reconciler
	Orders          contracts.OrderRepository
	Selections      contracts.SelectionRepository
	PendingBookings contracts.PendingBookingRepository
	Plans           contracts.SubscriptionPlanRepository
	Settlement      contracts.SettlementUsecase
	Gateways        map[string]contracts.PaymentGatewayClient
	Txn             contracts.TxnRunner
	SideEffects     contracts.OrderSideEffects
	Alerts          contracts.AlertService
	Log             *zap.Logger
}

func NewWebhookUsecase(
	guard *IdempotencyGuard,
	fanOut *orders.FanOutEngine,
	reconciler *orders.Reconciler,
	orderRepository contracts.OrderRepository,
	selectionRepository contracts.SelectionRepository,
	pendingBookingRepository contracts.PendingBookingRepository,
	planRepository contracts.SubscriptionPlanRepository,
	settlement contracts.SettlementUsecase,
	gateways []contracts.PaymentGatewayClient,
	txn contracts.TxnRunner,
	sideEffects contracts.OrderSideEffects,
	alerts contracts.AlertService,
	logger *zap.Logger,
) contracts.WebhookUsecase {
	gatewayIndex := make(map[string]contracts.PaymentGatewayClient, len(gateways))
	for _, gateway := range gateways {
		gatewayIndex[gateway.Provider()] = gateway
	}
	return &webhookUsecase{
		Guard:           guard,
		FanOut:          fanOut,
		Reconciler:      reconciler,
		Orders:          orderRepository,
		Selections:      selectionRepository,
		PendingBookings: pendingBookingRepository,
		Plans:           planRepository,
		Settlement:      settlement,
		Gateways:        gatewayIndex,
		Txn:             txn,
		SideEffects:     sideEffects,
		Alerts:          alerts,
		Log:             logger,
	}
}

func (u *webhookUsecase) ProcessCollection(ctx context.Context, envelope *models.WebhookEnvelope) (*contracts.WebhookResult, error) {
	start := time.Now()
	defer func() {
		metrics.WebhookProcessingLatency.WithLabelValues(envelope.Provider, string(envelope.Flow)).Observe(time.Since(start).Seconds())
	}()
	metrics.WebhooksReceivedTotal.WithLabelValues(envelope.Provider, string(envelope.Flow)).Inc()

	log := u.Log.With(
		zap.String(constvars.LoggingProviderKey, envelope.Provider),
		zap.String(constvars.LoggingTransactionIDKey, envelope.TransactionID),
		zap.String(constvars.LoggingFlowKey, string(envelope.Flow)),
		zap.String(constvars.LoggingPaymentStatusKey, string(envelope.Status)),
	)

	if envelope.Status == models.WebhookStatusUnhandled {
		metrics.WebhooksUnhandledTotal.WithLabelValues(envelope.Provider).Inc()
		log.Warn("webhookUsecase acknowledging unhandled collection status")
		return &contracts.WebhookResult{}, nil
	}
	if envelope.Status == models.WebhookStatusAccepted {
		log.Info("webhookUsecase acknowledging intermediate collection status")
		return &contracts.WebhookResult{}, nil
	}

	acquired, token, err := u.Guard.Acquire(ctx, envelope)
	if err != nil {
		return nil, err
	}
	if !acquired {
		metrics.WebhooksDuplicateTotal.WithLabelValues(envelope.Provider).Inc()
		log.Info("webhookUsecase duplicate delivery in flight, acknowledging")
		return &contracts.WebhookResult{Duplicate: true}, nil
	}
	defer u.Guard.Release(ctx, envelope, token)

	settled, err := u.Guard.AlreadySettled(ctx, envelope)
	if err != nil {
		return nil, err
	}
	if settled {
		metrics.WebhooksDuplicateTotal.WithLabelValues(envelope.Provider).Inc()
		log.Info("webhookUsecase transaction already settled, acknowledging")
		return &contracts.WebhookResult{Duplicate: true}, nil
	}

	// Archive the raw payload before any settlement decision. Mismatched and
	// failed callbacks are the ones reconciliation needs as evidence later.
	u.SideEffects.DispatchPayloadAudit(ctx, envelope.Provider, envelope.TransactionID, envelope.RawPayload)

	if envelope.Status == models.WebhookStatusPendingApproval {
		proceed, err := u.handlePendingApproval(ctx, envelope, log)
		if err != nil {
			return nil, err
		}
		if !proceed {
			return &contracts.WebhookResult{}, nil
		}
		// The provider already settled the funds; continue as completed.
	}

	if envelope.Status == models.WebhookStatusFailed || envelope.Status == models.WebhookStatusRejected {
		u.handleUnsuccessfulCollection(ctx, envelope, log)
		return &contracts.WebhookResult{}, nil
	}

	var result *contracts.WebhookResult
	switch envelope.Flow {
	case models.WebhookFlowCart:
		result, err = u.settleCart(ctx, envelope, log)
	case models.WebhookFlowPublic:
		result, err = u.settlePublicBooking(ctx, envelope, log)
	case models.WebhookFlowSubscription:
		result, err = u.settleSubscription(ctx, envelope, log)
	default:
		metrics.WebhooksUnhandledTotal.WithLabelValues(envelope.Provider).Inc()
		log.Warn("webhookUsecase acknowledging unknown collection flow")
		return &contracts.WebhookResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// handlePendingApproval runs OY's two-phase accept dance. The status check
// comes first: if the money already settled, the accept step is moot and the
// callback proceeds as a completion. Otherwise the collection is accepted and
// the settlement waits for OY's follow-up COMPLETE callback.
func (u *webhookUsecase) handlePendingApproval(ctx context.Context, envelope *models.WebhookEnvelope, log *zap.Logger) (bool, error) {
	gateway, ok := u.Gateways[envelope.Provider]
	if !ok {
		return false, exceptions.ErrUnknownProvider(fmt.Errorf("no gateway registered for %q", envelope.Provider))
	}

	collection, err := gateway.GetCollectionStatus(ctx, envelope.ProviderRef)
	if err != nil {
		return false, err
	}
	if collection.Status == string(constvars.OyPaymentStatusComplete) {
		log.Info("webhookUsecase pending approval already complete, settling now")
		envelope.Status = models.WebhookStatusCompleted
		if collection.Amount > 0 {
			envelope.Amount = collection.Amount
		}
		return true, nil
	}

	if err := gateway.AcceptPendingCollection(ctx, envelope.ProviderRef); err != nil {
		return false, err
	}
	log.Info("webhookUsecase accepted pending collection, awaiting completion callback")
	return false, nil
}

// handleUnsuccessfulCollection acknowledges failed and expired payments. Cart
// selections stay pending for the next checkout attempt; an expired public
// booking loses its staged record eagerly instead of waiting for the TTL.
func (u *webhookUsecase) handleUnsuccessfulCollection(ctx context.Context, envelope *models.WebhookEnvelope, log *zap.Logger) {
	log.Info("webhookUsecase acknowledging unsuccessful collection")
	if envelope.Flow != models.WebhookFlowPublic {
		return
	}
	if err := u.PendingBookings.DeleteByTransactionRef(ctx, envelope.TransactionID); err != nil {
		log.Warn("webhookUsecase failed to delete staged booking; TTL will collect it", zap.Error(err))
	}
}

func (u *webhookUsecase) settleCart(ctx context.Context, envelope *models.WebhookEnvelope, log *zap.Logger) (*contracts.WebhookResult, error) {
	patientID := envelope.Metadata[constvars.MetadataKeyPatientID]
	deliveryMethod := envelope.Metadata[constvars.MetadataKeyDeliveryMethod]
	deliveryAddress := envelope.Metadata[constvars.MetadataKeyDeliveryAddress]
	// Checkout creation stamps the patient's email into the callback metadata
	// so the confirmation receipt needs no profile lookup here.
	customerEmail := envelope.Metadata[constvars.MetadataKeyCustomerEmail]

	selections, err := u.Selections.FindPendingByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(selections) == 0 {
		// Money arrived with nothing to fulfil. Acknowledge so the provider
		// stops retrying, and put a human on it.
		log.Error("webhookUsecase payment confirmed for empty cart",
			zap.String(constvars.LoggingPatientIDKey, patientID),
		)
		u.Alerts.Raise(ctx, &models.Alert{
			Kind:          models.AlertKindEmptyCartPayment,
			Provider:      envelope.Provider,
			TransactionID: envelope.TransactionID,
			Message:       fmt.Sprintf("payment of %.2f confirmed but patient %s has no pending selections", envelope.Amount, patientID),
			Details:       map[string]string{"patient_id": patientID},
		})
		return &contracts.WebhookResult{}, nil
	}

	built, total, err := u.FanOut.BuildFromSelections(ctx, envelope, selections, patientID, deliveryMethod, deliveryAddress)
	if err != nil {
		return nil, err
	}
	if err := u.verifyAmount(ctx, envelope, total); err != nil {
		return nil, err
	}

	selectionIDs := make([]string, 0, len(selections))
	for _, selection := range selections {
		selectionIDs = append(selectionIDs, selection.ID)
	}

	err = u.Txn.WithTransaction(ctx, func(txnCtx context.Context) error {
		for _, order := range built {
			if _, err := u.Orders.CreateOrder(txnCtx, order); err != nil {
				return err
			}
		}
		if err := u.Selections.MarkBooked(txnCtx, selectionIDs); err != nil {
			return err
		}
		for _, order := range built {
			if _, err := u.Settlement.CreditClinic(txnCtx, order.ClinicID, envelope.Provider, order.TotalAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &contracts.WebhookResult{Processed: true}
	for _, order := range built {
		metrics.OrdersCreatedTotal.Inc()
		result.OrderIDs = append(result.OrderIDs, order.ID)
		u.SideEffects.DispatchOrderCreated(ctx, order, customerEmail)
		log.Info("webhookUsecase created order",
			zap.String(constvars.LoggingOrderIDKey, order.ID),
			zap.String(constvars.LoggingClinicIDKey, order.ClinicID),
			zap.Float64(constvars.LoggingAmountKey, order.TotalAmount),
		)
	}
	return result, nil
}

func (u *webhookUsecase) settlePublicBooking(ctx context.Context, envelope *models.WebhookEnvelope, log *zap.Logger) (*contracts.WebhookResult, error) {
	booking, err := u.PendingBookings.FindByTransactionRef(ctx, envelope.TransactionID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		// Either the TTL collected the staged booking before the provider
		// called back, or the reference never existed. Retrying cannot help,
		// and money arrived without a record to settle it against.
		log.Error("webhookUsecase staged booking not found for settled payment")
		u.Alerts.Raise(ctx, &models.Alert{
			Kind:          models.AlertKindMissingReference,
			Provider:      envelope.Provider,
			TransactionID: envelope.TransactionID,
			Message:       fmt.Sprintf("payment of %.2f confirmed but the staged booking for %s is gone", envelope.Amount, envelope.TransactionID),
		})
		return nil, exceptions.ErrPendingBookingGone(nil)
	}

	order, total, err := u.FanOut.BuildFromPendingBooking(ctx, envelope, booking)
	if err != nil {
		return nil, err
	}
	if err := u.verifyAmount(ctx, envelope, total); err != nil {
		return nil, err
	}

	err = u.Txn.WithTransaction(ctx, func(txnCtx context.Context) error {
		if _, err := u.Orders.CreateOrder(txnCtx, order); err != nil {
			return err
		}
		if err := u.PendingBookings.DeleteByTransactionRef(txnCtx, envelope.TransactionID); err != nil {
			return err
		}
		_, err := u.Settlement.CreditClinic(txnCtx, order.ClinicID, envelope.Provider, order.TotalAmount)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	u.SideEffects.DispatchOrderCreated(ctx, order, booking.Booker.Email)
	log.Info("webhookUsecase created public booking order",
		zap.String(constvars.LoggingOrderIDKey, order.ID),
		zap.String(constvars.LoggingClinicIDKey, order.ClinicID),
		zap.Float64(constvars.LoggingAmountKey, order.TotalAmount),
	)
	return &contracts.WebhookResult{Processed: true, OrderIDs: []string{order.ID}}, nil
}

func (u *webhookUsecase) settleSubscription(ctx context.Context, envelope *models.WebhookEnvelope, log *zap.Logger) (*contracts.WebhookResult, error) {
	ownerID := envelope.Metadata[constvars.MetadataKeyPatientID]
	planID := envelope.Metadata[constvars.MetadataKeyPlanID]

	plan, err := u.Plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		log.Error("webhookUsecase subscription plan not found", zap.String("plan_id", planID))
		u.Alerts.Raise(ctx, &models.Alert{
			Kind:          models.AlertKindMissingReference,
			Provider:      envelope.Provider,
			TransactionID: envelope.TransactionID,
			Message:       fmt.Sprintf("payment of %.2f confirmed but subscription plan %q does not exist", envelope.Amount, planID),
			Details:       map[string]string{"plan_id": planID},
		})
		return nil, exceptions.ErrStagingSetNotFound(fmt.Errorf("subscription plan %q", planID))
	}
	if err := u.verifyAmount(ctx, envelope, plan.Price); err != nil {
		return nil, err
	}

	var subscription *models.Subscription
	err = u.Txn.WithTransaction(ctx, func(txnCtx context.Context) error {
		subscription, err = u.Settlement.ApplySubscriptionPayment(txnCtx, ownerID, plan, envelope.TransactionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.SideEffects.DispatchSubscriptionApplied(ctx, subscription)
	log.Info("webhookUsecase applied subscription payment",
		zap.String("subscription_id", subscription.ID),
		zap.String("plan_id", plan.ID),
	)
	return &contracts.WebhookResult{Processed: true}, nil
}

// verifyAmount runs the reconciliation check and records the mismatch alert
// before surfacing the rejection.
func (u *webhookUsecase) verifyAmount(ctx context.Context, envelope *models.WebhookEnvelope, computedTotal float64) error {
	err := u.Reconciler.Verify(envelope.Provider, computedTotal, envelope.Amount)
	if err == nil {
		return nil
	}
	u.Alerts.Raise(ctx, &models.Alert{
		Kind:          models.AlertKindReconcileMismatch,
		Provider:      envelope.Provider,
		TransactionID: envelope.TransactionID,
		Message:       err.Error(),
		Details: map[string]string{
			"expected": fmt.Sprintf("%.2f", u.Reconciler.ExpectedCharge(envelope.Provider, computedTotal)),
			"received": fmt.Sprintf("%.2f", envelope.Amount),
		},
	})
	return err
}

func (u *webhookUsecase) ProcessPayout(ctx context.Context, envelope *models.WebhookEnvelope) (*contracts.WebhookResult, error) {
	start := time.Now()
	defer func() {
		metrics.WebhookProcessingLatency.WithLabelValues(envelope.Provider, string(envelope.Flow)).Observe(time.Since(start).Seconds())
	}()
	metrics.WebhooksReceivedTotal.WithLabelValues(envelope.Provider, string(envelope.Flow)).Inc()

	log := u.Log.With(
		zap.String(constvars.LoggingProviderKey, envelope.Provider),
		zap.String(constvars.LoggingTransactionIDKey, envelope.TransactionID),
		zap.String(constvars.LoggingPaymentStatusKey, string(envelope.Status)),
	)

	if envelope.Status == models.WebhookStatusUnhandled {
		metrics.WebhooksUnhandledTotal.WithLabelValues(envelope.Provider).Inc()
		log.Warn("webhookUsecase acknowledging unhandled payout status")
		return &contracts.WebhookResult{}, nil
	}

	acquired, token, err := u.Guard.Acquire(ctx, envelope)
	if err != nil {
		return nil, err
	}
	if !acquired {
		metrics.WebhooksDuplicateTotal.WithLabelValues(envelope.Provider).Inc()
		return &contracts.WebhookResult{Duplicate: true}, nil
	}
	defer u.Guard.Release(ctx, envelope, token)

	u.SideEffects.DispatchPayloadAudit(ctx, envelope.Provider, envelope.TransactionID, envelope.RawPayload)

	withdrawal, applied, err := u.Settlement.SettleWithdrawal(ctx, envelope)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		metrics.WebhooksUnhandledTotal.WithLabelValues(envelope.Provider).Inc()
		log.Warn("webhookUsecase payout callback references no known withdrawal")
		return &contracts.WebhookResult{}, nil
	}
	if !applied {
		if withdrawal.Status.Terminal() {
			metrics.WebhooksDuplicateTotal.WithLabelValues(envelope.Provider).Inc()
			log.Info("webhookUsecase withdrawal already terminal, acknowledging")
			return &contracts.WebhookResult{Duplicate: true}, nil
		}
		log.Info("webhookUsecase acknowledging non-final payout status")
		return &contracts.WebhookResult{}, nil
	}

	u.SideEffects.DispatchWithdrawalSettled(ctx, withdrawal)
	log.Info("webhookUsecase settled payout",
		zap.String(constvars.LoggingWithdrawalIDKey, withdrawal.ID),
		zap.String("status", string(withdrawal.Status)),
	)
	return &contracts.WebhookResult{Processed: true}, nil
}
