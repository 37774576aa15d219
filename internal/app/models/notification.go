package models

import "time"

type NotificationRecipientRole string

const (
	NotificationRecipientPatient NotificationRecipientRole = "patient"
	NotificationRecipientClinic  NotificationRecipientRole = "clinic"
	NotificationRecipientAdmin   NotificationRecipientRole = "admin"
)

// Notification is the persisted in-app record. Listing and read-state are
// handled elsewhere; this service only creates them.
type Notification struct {
	ID            string                    `bson:"_id,omitempty" json:"id"`
	RecipientID   string                    `bson:"recipient_id" json:"recipient_id"`
	RecipientRole NotificationRecipientRole `bson:"recipient_role" json:"recipient_role"`
	Title         string                    `bson:"title" json:"title"`
	Body          string                    `bson:"body" json:"body"`
	OrderID       string                    `bson:"order_id,omitempty" json:"order_id,omitempty"`
	CreatedAt     time.Time                 `bson:"created_at" json:"created_at"`
}
