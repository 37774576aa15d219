package models

import "time"

type OrderPaymentStatus string

const (
	OrderPaymentStatusPending OrderPaymentStatus = "pending"
	OrderPaymentStatusPaid    OrderPaymentStatus = "paid"
	OrderPaymentStatusFailed  OrderPaymentStatus = "failed"
)

type LineItemStatus string

const (
	LineItemStatusPending   LineItemStatus = "pending"
	LineItemStatusCompleted LineItemStatus = "completed"
	LineItemStatusCancelled LineItemStatus = "cancelled"
)

type StatusChange struct {
	Status    string    `bson:"status" json:"status"`
	ChangedAt time.Time `bson:"changed_at" json:"changed_at"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
}

type LineItem struct {
	TestID          string         `bson:"test_id" json:"test_id"`
	TestName        string         `bson:"test_name" json:"test_name"`
	Price           float64        `bson:"price" json:"price"`
	Quantity        int            `bson:"quantity" json:"quantity"`
	DurationMinutes int            `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	ScheduledAt     *time.Time     `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	Status          LineItemStatus `bson:"status" json:"status"`
	StatusHistory   []StatusChange `bson:"status_history" json:"status_history"`
}

// Order is the durable financial record, immutable once paid. One order is
// created per clinic per checkout event; a single payment may fan out into N
// orders. payment_ref + payment_method together form the idempotency key and
// carry a unique index together with clinic_id.
type Order struct {
	ID              string             `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"order_number" json:"order_number"`
	PatientID       string             `bson:"patient_id,omitempty" json:"patient_id,omitempty"`
	Booker          *BookerIdentity    `bson:"booker,omitempty" json:"booker,omitempty"`
	ClinicID        string             `bson:"clinic_id" json:"clinic_id"`
	LineItems       []LineItem         `bson:"line_items" json:"line_items"`
	PaymentMethod   string             `bson:"payment_method" json:"payment_method"`
	PaymentRef      string             `bson:"payment_ref" json:"payment_ref"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount"`
	PaymentStatus   OrderPaymentStatus `bson:"payment_status" json:"payment_status"`
	DeliveryMethod  string             `bson:"delivery_method" json:"delivery_method"`
	DeliveryAddress string             `bson:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	NeedsReview     bool               `bson:"needs_review" json:"needs_review"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
