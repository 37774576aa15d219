package models

import "time"

type AlertKind string

const (
	AlertKindReconcileMismatch AlertKind = "reconcile_mismatch"
	AlertKindEmptyCartPayment  AlertKind = "empty_cart_payment"
	AlertKindMissingTest       AlertKind = "missing_test"
	AlertKindMissingReference  AlertKind = "missing_reference"
	AlertKindCalendarFailed    AlertKind = "calendar_failed"
	AlertKindPayoutRefund      AlertKind = "payout_refund"
)

// Alert is an operator-attention record. Money-affecting anomalies are never
// silently dropped; they land here with enough context to investigate.
type Alert struct {
	ID            string            `bson:"_id,omitempty" json:"id"`
	Kind          AlertKind         `bson:"kind" json:"kind"`
	Provider      string            `bson:"provider,omitempty" json:"provider,omitempty"`
	TransactionID string            `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	Message       string            `bson:"message" json:"message"`
	Details       map[string]string `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
}
