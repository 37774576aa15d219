package models

import "time"

// BookerIdentity identifies an anonymous public booker; no account exists.
type BookerIdentity struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

// PendingBooking is the staged intent of an anonymous public checkout, keyed
// by the provider-issued transaction token. A TTL index on created_at is its
// only garbage collection, so the expiry window must exceed the provider's
// maximum callback latency.
type PendingBooking struct {
	ID              string         `bson:"_id,omitempty" json:"id"`
	TransactionRef  string         `bson:"transaction_ref" json:"transaction_ref"`
	ClinicID        string         `bson:"clinic_id" json:"clinic_id"`
	TestID          string         `bson:"test_id" json:"test_id"`
	Booker          BookerIdentity `bson:"booker" json:"booker"`
	DeliveryMethod  string         `bson:"delivery_method" json:"delivery_method"`
	DeliveryAddress string         `bson:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	Discount        *Discount      `bson:"discount,omitempty" json:"discount,omitempty"`
	ScheduledAt     *time.Time     `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	CreatedAt       time.Time      `bson:"created_at" json:"created_at"`
}
