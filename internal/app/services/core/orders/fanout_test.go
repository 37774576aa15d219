package orders

import (
	"context"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeTestRepository struct {
	tests map[string]*models.MedicalTest
}

func (r *fakeTestRepository) FindByID(_ context.Context, testID string) (*models.MedicalTest, error) {
	return r.tests[testID], nil
}

type fakeAlertService struct {
	alerts []*models.Alert
}

func (s *fakeAlertService) Raise(_ context.Context, alert *models.Alert) {
	s.alerts = append(s.alerts, alert)
}

func newTestFanOutEngine(tests map[string]*models.MedicalTest) (*FanOutEngine, *fakeAlertService) {
	alerts := &fakeAlertService{}
	engine := NewFanOutEngine(&fakeTestRepository{tests: tests}, alerts, zap.NewNop())
	return engine, alerts
}

func cartEnvelope() *models.WebhookEnvelope {
	return &models.WebhookEnvelope{
		Provider:      "oy",
		TransactionID: "trx-cart-1",
		Status:        models.WebhookStatusCompleted,
		Flow:          models.WebhookFlowCart,
	}
}

func TestFanOutBuildFromSelections(t *testing.T) {
	catalogue := map[string]*models.MedicalTest{
		"test-1": {ID: "test-1", ClinicID: "clinic-a", Name: "Complete Blood Count", Price: 150000, DurationMinutes: 15},
		"test-2": {ID: "test-2", ClinicID: "clinic-b", Name: "Lipid Panel", Price: 200000, DurationMinutes: 20},
		"test-3": {ID: "test-3", ClinicID: "clinic-c", Name: "HbA1c", Price: 180000, DurationMinutes: 10},
	}

	t.Run("Cart spanning three clinics produces three orders", func(t *testing.T) {
		engine, _ := newTestFanOutEngine(catalogue)
		selections := []models.Selection{
			{ID: "sel-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1},
			{ID: "sel-2", ClinicID: "clinic-b", TestID: "test-2", Quantity: 2},
			{ID: "sel-3", ClinicID: "clinic-c", TestID: "test-3", Quantity: 1},
			{ID: "sel-4", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1},
		}

		built, total, err := engine.BuildFromSelections(context.Background(), cartEnvelope(), selections, "patient-1", constvars.DeliveryMethodInPerson, "")
		assert.NoError(t, err)
		assert.Len(t, built, 3, "each clinic should get exactly one order")
		assert.Equal(t, float64(150000+400000+180000+150000), total, "total should sum effective prices across all orders")

		assert.Equal(t, "clinic-a", built[0].ClinicID, "clinic order should follow first appearance in the cart")
		assert.Equal(t, "clinic-b", built[1].ClinicID)
		assert.Equal(t, "clinic-c", built[2].ClinicID)

		assert.Len(t, built[0].LineItems, 2, "both clinic-a selections should land on the same order")
		assert.Equal(t, float64(300000), built[0].TotalAmount)
		for _, order := range built {
			assert.Equal(t, "oy", order.PaymentMethod)
			assert.Equal(t, "trx-cart-1", order.PaymentRef)
			assert.Equal(t, models.OrderPaymentStatusPaid, order.PaymentStatus)
			assert.False(t, order.NeedsReview)
			assert.NotEmpty(t, order.OrderNumber)
		}
	})

	t.Run("Discount final price overrides base arithmetic", func(t *testing.T) {
		engine, _ := newTestFanOutEngine(catalogue)
		selections := []models.Selection{
			{ID: "sel-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 2, Discount: &models.Discount{Code: "PROMO", FinalPrice: 250000}},
		}

		built, total, err := engine.BuildFromSelections(context.Background(), cartEnvelope(), selections, "patient-1", constvars.DeliveryMethodInPerson, "")
		assert.NoError(t, err)
		assert.Equal(t, float64(250000), total, "discounted final price should win over price*quantity")
		assert.Equal(t, float64(250000), built[0].TotalAmount)
	})

	t.Run("Deleted test falls back to placeholder and flags review", func(t *testing.T) {
		engine, alerts := newTestFanOutEngine(catalogue)
		selections := []models.Selection{
			{ID: "sel-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1},
			{ID: "sel-2", ClinicID: "clinic-a", TestID: "test-gone", Quantity: 1},
		}

		built, total, err := engine.BuildFromSelections(context.Background(), cartEnvelope(), selections, "patient-1", constvars.DeliveryMethodInPerson, "")
		assert.NoError(t, err, "a deleted test must not abort the paid order")
		assert.Len(t, built, 1)
		assert.True(t, built[0].NeedsReview, "order with a placeholder line should be flagged for review")
		assert.Equal(t, constvars.UnknownTestName, built[0].LineItems[1].TestName)
		assert.Equal(t, float64(constvars.UnknownTestPrice), built[0].LineItems[1].Price)
		assert.Equal(t, float64(150000), total, "placeholder line should contribute zero to the total")
		assert.Len(t, alerts.alerts, 1, "missing test should raise one operator alert")
		assert.Equal(t, models.AlertKindMissingTest, alerts.alerts[0].Kind)
	})

	t.Run("Unknown delivery method rejected", func(t *testing.T) {
		engine, _ := newTestFanOutEngine(catalogue)
		selections := []models.Selection{
			{ID: "sel-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 1},
		}

		_, _, err := engine.BuildFromSelections(context.Background(), cartEnvelope(), selections, "patient-1", "drone_drop", "")
		assert.Error(t, err, "an unrecognized delivery method must be rejected")
	})

	t.Run("Zero quantity defaults to one", func(t *testing.T) {
		engine, _ := newTestFanOutEngine(catalogue)
		selections := []models.Selection{
			{ID: "sel-1", ClinicID: "clinic-a", TestID: "test-1", Quantity: 0},
		}

		built, total, err := engine.BuildFromSelections(context.Background(), cartEnvelope(), selections, "patient-1", constvars.DeliveryMethodInPerson, "")
		assert.NoError(t, err)
		assert.Equal(t, 1, built[0].LineItems[0].Quantity)
		assert.Equal(t, float64(150000), total)
	})
}

func TestFanOutBuildFromPendingBooking(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	catalogue := map[string]*models.MedicalTest{
		"test-1": {ID: "test-1", ClinicID: "clinic-a", Name: "Complete Blood Count", Price: 150000, DurationMinutes: 15},
	}

	t.Run("Builds a single order with booker contact", func(t *testing.T) {
		engine, _ := newTestFanOutEngine(catalogue)
		booking := &models.PendingBooking{
			TransactionRef: "trx-pub-1",
			ClinicID:       "clinic-a",
			TestID:         "test-1",
			ScheduledAt:    &scheduledAt,
			DeliveryMethod: constvars.DeliveryMethodInPerson,
			Booker: models.BookerIdentity{
				Name:  "Jane Walker",
				Email: "jane@example.com",
			},
		}

		envelope := &models.WebhookEnvelope{Provider: "xendit", TransactionID: "trx-pub-1", Flow: models.WebhookFlowPublic}
		order, total, err := engine.BuildFromPendingBooking(context.Background(), envelope, booking)
		assert.NoError(t, err)
		assert.Equal(t, float64(150000), total)
		assert.NotNil(t, order.Booker)
		assert.Equal(t, "jane@example.com", order.Booker.Email)
		assert.Len(t, order.LineItems, 1)
		assert.Equal(t, scheduledAt, *order.LineItems[0].ScheduledAt)
		assert.Equal(t, 15, order.LineItems[0].DurationMinutes)
	})

	t.Run("Unknown delivery method on the staged record rejected", func(t *testing.T) {
		engine, _ := newTestFanOutEngine(catalogue)
		booking := &models.PendingBooking{
			TransactionRef: "trx-pub-2",
			ClinicID:       "clinic-a",
			TestID:         "test-1",
			DeliveryMethod: "teleport",
		}

		envelope := &models.WebhookEnvelope{Provider: "xendit", TransactionID: "trx-pub-2", Flow: models.WebhookFlowPublic}
		_, _, err := engine.BuildFromPendingBooking(context.Background(), envelope, booking)
		assert.Error(t, err)
	})
}
