package models

import "time"

// SubscriptionPlan defines purchasable plans. DurationDays extends the end
// date; ReportAllowance is the privilege quota added per purchase.
type SubscriptionPlan struct {
	ID              string  `bson:"_id,omitempty" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Price           float64 `bson:"price" json:"price"`
	DurationDays    int     `bson:"duration_days" json:"duration_days"`
	ReportAllowance int     `bson:"report_allowance" json:"report_allowance"`
}

// Subscription accumulates plan purchases for one owner. payment_refs records
// every settled transaction reference and carries a unique index, making the
// array the storage-level idempotency backstop for subscription purchases.
type Subscription struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	OwnerID         string    `bson:"owner_id" json:"owner_id"`
	PlanID          string    `bson:"plan_id" json:"plan_id"`
	StartDate       time.Time `bson:"start_date" json:"start_date"`
	EndDate         time.Time `bson:"end_date" json:"end_date"`
	ReportAllowance int       `bson:"report_allowance" json:"report_allowance"`
	PaymentRefs     []string  `bson:"payment_refs" json:"payment_refs"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// Active reports whether the subscription covers the given instant.
func (s *Subscription) Active(now time.Time) bool {
	return !now.Before(s.StartDate) && now.Before(s.EndDate)
}
