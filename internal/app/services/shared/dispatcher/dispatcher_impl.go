package dispatcher

import (
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/metrics"
	"sync"
	"time"

	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

type job struct {
	effect string
	run    func(ctx context.Context) error
}

// Dispatcher executes best-effort side effects on a bounded worker pool. Each
// effect runs in isolation: a failure is logged and counted, never propagated
// back into the financial flow that queued it.
type Dispatcher struct {
	Notifications contracts.NotificationSink
	Push          contracts.PushSender
	Mailer        contracts.MailerService
	Calendar      contracts.CalendarService
	Alerts        contracts.AlertService
	Archive       contracts.AuditArchive
	Log           *zap.Logger

	adminRecipientID    string
	calendarMaxAttempts int
	calendarBackoffBase time.Duration

	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
}

func NewDispatcher(
	notifications contracts.NotificationSink,
	push contracts.PushSender,
	mailer contracts.MailerService,
	calendar contracts.CalendarService,
	alerts contracts.AlertService,
	archive contracts.AuditArchive,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) *Dispatcher {
	workers := internalConfig.Dispatcher.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := internalConfig.Dispatcher.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	maxAttempts := internalConfig.Calendar.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffBase := time.Duration(internalConfig.Calendar.BackoffBaseInMillis) * time.Millisecond
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}

	d := &Dispatcher{
		Notifications:       notifications,
		Push:                push,
		Mailer:              mailer,
		Calendar:            calendar,
		Alerts:              alerts,
		Archive:             archive,
		Log:                 logger,
		adminRecipientID:    internalConfig.App.AdminRecipientID,
		calendarMaxAttempts: maxAttempts,
		calendarBackoffBase: backoffBase,
		jobs:                make(chan job, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		// Side effects outlive the webhook request, so they run on a fresh
		// context instead of the (already cancelled) request one.
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		if err := j.run(ctx); err != nil {
			metrics.SideEffectFailuresTotal.WithLabelValues(j.effect).Inc()
			d.Log.Error("Dispatcher side effect failed",
				zap.String(constvars.LoggingSideEffectKey, j.effect),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Stop closes intake and drains queued jobs. Called during graceful shutdown
// so accepted webhooks finish their side effects before the process exits.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(effect string, run func(ctx context.Context) error) {
	select {
	case d.jobs <- job{effect: effect, run: run}:
	default:
		metrics.SideEffectFailuresTotal.WithLabelValues(effect).Inc()
		d.Log.Error("Dispatcher queue full, dropping side effect",
			zap.String(constvars.LoggingSideEffectKey, effect),
		)
	}
}

func (d *Dispatcher) DispatchOrderCreated(ctx context.Context, order *models.Order, recipientEmail string) {
	snapshot := *order

	d.enqueue("patient_notification", func(ctx context.Context) error {
		recipientID := snapshot.PatientID
		role := models.NotificationRecipientPatient
		if recipientID == "" && snapshot.Booker != nil {
			recipientID = snapshot.Booker.Email
		}
		if err := d.Notifications.CreateNotification(ctx, &models.Notification{
			RecipientID:   recipientID,
			RecipientRole: role,
			Title:         "Payment confirmed",
			Body:          fmt.Sprintf("Your order %s is confirmed and the clinic has been notified.", snapshot.OrderNumber),
			OrderID:       snapshot.ID,
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}
		if d.Push != nil && snapshot.PatientID != "" {
			return d.Push.SendPush(ctx, snapshot.PatientID, "Payment confirmed", fmt.Sprintf("Order %s is confirmed.", snapshot.OrderNumber))
		}
		return nil
	})

	d.enqueue("clinic_notification", func(ctx context.Context) error {
		return d.Notifications.CreateNotification(ctx, &models.Notification{
			RecipientID:   snapshot.ClinicID,
			RecipientRole: models.NotificationRecipientClinic,
			Title:         "New paid order",
			Body:          fmt.Sprintf("Order %s has been paid; %d test(s) are awaiting fulfilment.", snapshot.OrderNumber, len(snapshot.LineItems)),
			OrderID:       snapshot.ID,
			CreatedAt:     time.Now().UTC(),
		})
	})

	if d.adminRecipientID != "" {
		d.enqueue("admin_notification", func(ctx context.Context) error {
			return d.Notifications.CreateNotification(ctx, &models.Notification{
				RecipientID:   d.adminRecipientID,
				RecipientRole: models.NotificationRecipientAdmin,
				Title:         "Order created",
				Body:          fmt.Sprintf("Order %s created for clinic %s (%.2f via %s).", snapshot.OrderNumber, snapshot.ClinicID, snapshot.TotalAmount, snapshot.PaymentMethod),
				OrderID:       snapshot.ID,
				CreatedAt:     time.Now().UTC(),
			})
		})
	}

	if recipientEmail != "" {
		email := recipientEmail
		d.enqueue("receipt_email", func(ctx context.Context) error {
			return d.Mailer.SendEmail(ctx, email,
				fmt.Sprintf("Receipt for order %s", snapshot.OrderNumber),
				buildReceiptBody(&snapshot),
			)
		})
	}

	for _, item := range snapshot.LineItems {
		if item.ScheduledAt == nil {
			continue
		}
		scheduled := item
		email := recipientEmail
		d.enqueue("calendar_event", func(ctx context.Context) error {
			return d.createCalendarEvent(ctx, &snapshot, &scheduled, email)
		})
	}
}

// createCalendarEvent retries the calendar call with exponential backoff and
// raises an operator alert once attempts are exhausted. The order itself is
// already durable; only the booking convenience is at stake.
func (d *Dispatcher) createCalendarEvent(ctx context.Context, order *models.Order, item *models.LineItem, attendeeEmail string) error {
	var lastErr error
	for attempt := 1; attempt <= d.calendarMaxAttempts; attempt++ {
		event, err := d.Calendar.CreateEvent(ctx, order.ClinicID, attendeeEmail, item.TestName, *item.ScheduledAt, durationOrDefault(item))
		if err == nil {
			d.Log.Info("Dispatcher created calendar event",
				zap.String(constvars.LoggingOrderIDKey, order.ID),
				zap.String("event_link", event.EventLink),
			)
			return nil
		}
		lastErr = err
		d.Log.Warn("Dispatcher calendar attempt failed",
			zap.String(constvars.LoggingOrderIDKey, order.ID),
			zap.Int(constvars.LoggingAttemptKey, attempt),
			zap.Error(err),
		)
		if attempt < d.calendarMaxAttempts {
			select {
			case <-time.After(d.calendarBackoffBase * (1 << (attempt - 1))):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	d.Alerts.Raise(ctx, &models.Alert{
		Kind:          models.AlertKindCalendarFailed,
		Provider:      order.PaymentMethod,
		TransactionID: order.PaymentRef,
		Message:       fmt.Sprintf("calendar event creation failed after %d attempts for order %s", d.calendarMaxAttempts, order.OrderNumber),
		Details: map[string]string{
			"order_id":  order.ID,
			"clinic_id": order.ClinicID,
			"test_name": item.TestName,
		},
		CreatedAt: time.Now().UTC(),
	})
	return lastErr
}

func (d *Dispatcher) DispatchSubscriptionApplied(ctx context.Context, subscription *models.Subscription) {
	snapshot := *subscription
	d.enqueue("subscription_notification", func(ctx context.Context) error {
		return d.Notifications.CreateNotification(ctx, &models.Notification{
			RecipientID:   snapshot.OwnerID,
			RecipientRole: models.NotificationRecipientPatient,
			Title:         "Subscription active",
			Body:          fmt.Sprintf("Your subscription now runs until %s.", snapshot.EndDate.Format("2 January 2006")),
			CreatedAt:     time.Now().UTC(),
		})
	})
}

func (d *Dispatcher) DispatchPayloadAudit(ctx context.Context, provider, transactionID string, payload []byte) {
	body := make([]byte, len(payload))
	copy(body, payload)
	d.enqueue("payload_audit", func(ctx context.Context) error {
		return d.Archive.ArchivePayload(ctx, provider, transactionID, body)
	})
}

func (d *Dispatcher) DispatchWithdrawalSettled(ctx context.Context, withdrawal *models.Withdrawal) {
	snapshot := *withdrawal

	d.enqueue("withdrawal_notification", func(ctx context.Context) error {
		title := "Withdrawal completed"
		body := fmt.Sprintf("Your withdrawal of %.2f has been sent to %s.", snapshot.Amount, snapshot.BankCode)
		if snapshot.Status == models.WithdrawalStatusFailed {
			title = "Withdrawal failed"
			body = fmt.Sprintf("Your withdrawal of %.2f failed and the amount plus fee has been returned to your balance.", snapshot.Amount)
		}
		return d.Notifications.CreateNotification(ctx, &models.Notification{
			RecipientID:   snapshot.ClinicID,
			RecipientRole: models.NotificationRecipientClinic,
			Title:         title,
			Body:          body,
			CreatedAt:     time.Now().UTC(),
		})
	})
}

func buildReceiptBody(order *models.Order) string {
	body := fmt.Sprintf("Order %s\n\n", order.OrderNumber)
	for _, item := range order.LineItems {
		body += fmt.Sprintf("- %s x%d: %.2f\n", item.TestName, item.Quantity, item.Price)
	}
	body += fmt.Sprintf("\nTotal: %.2f\nPayment method: %s\n", order.TotalAmount, order.PaymentMethod)
	return body
}

func durationOrDefault(item *models.LineItem) int {
	if item.DurationMinutes > 0 {
		return item.DurationMinutes
	}
	// Fallback slot length when the catalogue has no duration recorded.
	return 30
}
