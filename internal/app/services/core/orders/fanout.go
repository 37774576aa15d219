package orders

import (
	"context"
	"fmt"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/utils"
	"time"

	"go.uber.org/zap"
)

// FanOutEngine turns one confirmed payment into per-clinic orders. A cart may
// span clinics; each clinic gets exactly one order carrying only its own line
// items, and the engine reports the computed total across all of them for
// reconciliation.
type FanOutEngine struct {
	Tests  contracts.TestRepository
	Alerts contracts.AlertService
	Log    *zap.Logger
}

func NewFanOutEngine(tests contracts.TestRepository, alerts contracts.AlertService, logger *zap.Logger) *FanOutEngine {
	return &FanOutEngine{
		Tests:  tests,
		Alerts: alerts,
		Log:    logger,
	}
}

func validDeliveryMethod(method string) bool {
	return method == constvars.DeliveryMethodInPerson || method == constvars.DeliveryMethodHomeVisit
}

// BuildFromSelections groups the staged selections by clinic and builds one
// order per clinic. Clinic iteration follows first appearance in the cart so
// the fan-out is deterministic. The returned total is the sum of effective
// line prices across every order.
func (e *FanOutEngine) BuildFromSelections(
	ctx context.Context,
	envelope *models.WebhookEnvelope,
	selections []models.Selection,
	patientID, deliveryMethod, deliveryAddress string,
) ([]*models.Order, float64, error) {
	if !validDeliveryMethod(deliveryMethod) {
		return nil, 0, exceptions.ErrUnknownDeliveryMethod(nil, deliveryMethod)
	}

	clinicOrder := make([]string, 0)
	grouped := make(map[string][]models.Selection)
	for _, selection := range selections {
		if _, seen := grouped[selection.ClinicID]; !seen {
			clinicOrder = append(clinicOrder, selection.ClinicID)
		}
		grouped[selection.ClinicID] = append(grouped[selection.ClinicID], selection)
	}

	now := time.Now().UTC()
	var total float64
	orders := make([]*models.Order, 0, len(clinicOrder))
	for _, clinicID := range clinicOrder {
		order := &models.Order{
			OrderNumber:     utils.GenerateOrderNumber(now),
			PatientID:       patientID,
			ClinicID:        clinicID,
			PaymentMethod:   envelope.Provider,
			PaymentRef:      envelope.TransactionID,
			PaymentStatus:   models.OrderPaymentStatusPaid,
			DeliveryMethod:  deliveryMethod,
			DeliveryAddress: deliveryAddress,
			CreatedAt:       now,
		}
		for _, selection := range grouped[clinicID] {
			item, lineTotal, err := e.buildLineItem(ctx, envelope, &selection, now)
			if err != nil {
				return nil, 0, err
			}
			if item.TestName == constvars.UnknownTestName {
				order.NeedsReview = true
			}
			order.LineItems = append(order.LineItems, *item)
			order.TotalAmount += lineTotal
		}
		total += order.TotalAmount
		orders = append(orders, order)
	}
	return orders, total, nil
}

// BuildFromPendingBooking builds the single order of an anonymous public
// checkout.
func (e *FanOutEngine) BuildFromPendingBooking(
	ctx context.Context,
	envelope *models.WebhookEnvelope,
	booking *models.PendingBooking,
) (*models.Order, float64, error) {
	if !validDeliveryMethod(booking.DeliveryMethod) {
		return nil, 0, exceptions.ErrUnknownDeliveryMethod(nil, booking.DeliveryMethod)
	}

	now := time.Now().UTC()
	selection := models.Selection{
		ClinicID:    booking.ClinicID,
		TestID:      booking.TestID,
		Quantity:    1,
		ScheduledAt: booking.ScheduledAt,
		Discount:    booking.Discount,
	}
	item, lineTotal, err := e.buildLineItem(ctx, envelope, &selection, now)
	if err != nil {
		return nil, 0, err
	}

	booker := booking.Booker
	order := &models.Order{
		OrderNumber:     utils.GenerateOrderNumber(now),
		Booker:          &booker,
		ClinicID:        booking.ClinicID,
		LineItems:       []models.LineItem{*item},
		PaymentMethod:   envelope.Provider,
		PaymentRef:      envelope.TransactionID,
		TotalAmount:     lineTotal,
		PaymentStatus:   models.OrderPaymentStatusPaid,
		DeliveryMethod:  booking.DeliveryMethod,
		DeliveryAddress: booking.DeliveryAddress,
		NeedsReview:     item.TestName == constvars.UnknownTestName,
		CreatedAt:       now,
	}
	return order, lineTotal, nil
}

// buildLineItem resolves the catalogue entry behind a selection. A test
// deleted between checkout and callback must not abort the paid order: the
// line falls back to a zero-priced placeholder, the order is flagged for
// review and an operator alert is raised.
func (e *FanOutEngine) buildLineItem(ctx context.Context, envelope *models.WebhookEnvelope, selection *models.Selection, now time.Time) (*models.LineItem, float64, error) {
	quantity := selection.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	test, err := e.Tests.FindByID(ctx, selection.TestID)
	if err != nil {
		return nil, 0, err
	}

	item := &models.LineItem{
		TestID:      selection.TestID,
		Quantity:    quantity,
		ScheduledAt: selection.ScheduledAt,
		Status:      models.LineItemStatusPending,
		StatusHistory: []models.StatusChange{{
			Status:    string(models.LineItemStatusPending),
			ChangedAt: now,
		}},
	}

	if test == nil {
		e.Log.Warn("FanOutEngine selection references a missing test",
			zap.String("test_id", selection.TestID),
			zap.String(constvars.LoggingTransactionIDKey, envelope.TransactionID),
		)
		e.Alerts.Raise(ctx, &models.Alert{
			Kind:          models.AlertKindMissingTest,
			Provider:      envelope.Provider,
			TransactionID: envelope.TransactionID,
			Message:       fmt.Sprintf("test %s no longer exists; order flagged for review", selection.TestID),
			Details:       map[string]string{"test_id": selection.TestID, "clinic_id": selection.ClinicID},
			CreatedAt:     now,
		})
		item.TestName = constvars.UnknownTestName
		item.Price = constvars.UnknownTestPrice
		return item, selection.EffectivePrice(constvars.UnknownTestPrice), nil
	}

	item.TestName = test.Name
	item.Price = test.Price
	item.DurationMinutes = test.DurationMinutes
	return item, selection.EffectivePrice(test.Price), nil
}
