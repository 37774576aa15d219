package models

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// Terminal reports whether the status is sticky. A late or duplicate webhook
// for a terminal withdrawal is a no-op.
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed
}

// Withdrawal tracks a clinic payout. The balance deduction happens at
// initiation; a failed payout refunds amount+fee.
type Withdrawal struct {
	ID             string           `bson:"_id,omitempty" json:"id"`
	ClinicID       string           `bson:"clinic_id" json:"clinic_id"`
	Amount         float64          `bson:"amount" json:"amount"`
	Fee            float64          `bson:"fee" json:"fee"`
	Provider       string           `bson:"provider" json:"provider"`
	PayoutRef      string           `bson:"payout_ref" json:"payout_ref"`
	BankCode       string           `bson:"bank_code" json:"bank_code"`
	AccountNumber  string           `bson:"account_number" json:"account_number"`
	Status         WithdrawalStatus `bson:"status" json:"status"`
	ProviderStatus string           `bson:"provider_status" json:"provider_status"`
	FailureReason  string           `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	StatusHistory  []StatusChange   `bson:"status_history" json:"status_history"`
	CreatedAt      time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `bson:"updated_at" json:"updated_at"`
}
