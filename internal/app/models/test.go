package models

import "time"

// MedicalTest is a clinic's catalogue entry. Scheduled tests produce calendar
// events when their order is confirmed.
type MedicalTest struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	ClinicID        string    `bson:"clinic_id" json:"clinic_id"`
	Name            string    `bson:"name" json:"name"`
	Price           float64   `bson:"price" json:"price"`
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
