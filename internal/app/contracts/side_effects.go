package contracts

import (
	"context"
	"medilab-service/internal/app/models"
	"time"
)

type NotificationSink interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
}

type PushSender interface {
	SendPush(ctx context.Context, recipientID, title, body string) error
}

type MailerService interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// CalendarEvent is the result of a created calendar booking.
type CalendarEvent struct {
	EventLink string
	MeetLink  string
}

type CalendarService interface {
	CreateEvent(ctx context.Context, clinicID, attendeeEmail, testName string, start time.Time, durationMinutes int) (*CalendarEvent, error)
}

// AlertService records operator-attention anomalies. Raising an alert must
// never fail the financial flow that triggered it.
type AlertService interface {
	Raise(ctx context.Context, alert *models.Alert)
}

// AuditArchive stores raw webhook payloads as reconciliation evidence.
type AuditArchive interface {
	ArchivePayload(ctx context.Context, provider, transactionID string, payload []byte) error
}
