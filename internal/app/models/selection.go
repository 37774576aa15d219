package models

import "time"

type SelectionStatus string

const (
	SelectionStatusPending SelectionStatus = "pending"
	SelectionStatusBooked  SelectionStatus = "booked"
)

// Discount attached to a staged selection at checkout time. FinalPrice wins
// over base-price arithmetic whenever it is positive.
type Discount struct {
	Code       string  `bson:"code" json:"code"`
	FinalPrice float64 `bson:"final_price" json:"final_price"`
}

// Selection is a staged cart item owned by a patient. It is mutated only by
// the checkout and webhook flows and transitions pending -> booked exactly
// once, never back.
type Selection struct {
	ID          string          `bson:"_id,omitempty" json:"id"`
	PatientID   string          `bson:"patient_id" json:"patient_id"`
	ClinicID    string          `bson:"clinic_id" json:"clinic_id"`
	TestID      string          `bson:"test_id" json:"test_id"`
	Quantity    int             `bson:"quantity" json:"quantity"`
	ScheduledAt *time.Time      `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	Discount    *Discount       `bson:"discount,omitempty" json:"discount,omitempty"`
	Status      SelectionStatus `bson:"status" json:"status"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at" json:"updated_at"`
}

// EffectivePrice applies the stored discount, falling back to base price
// times quantity.
func (s *Selection) EffectivePrice(basePrice float64) float64 {
	if s.Discount != nil && s.Discount.FinalPrice > 0 {
		return s.Discount.FinalPrice
	}
	return basePrice * float64(s.Quantity)
}
