package requests

// CreateWithdrawal initiates a clinic payout. The balance is debited
// atomically before the payout is submitted to the provider.
type CreateWithdrawal struct {
	ClinicID      string  `json:"clinic_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Provider      string  `json:"provider" validate:"required,oneof=oy xendit"`
	BankCode      string  `json:"bank_code" validate:"required"`
	AccountHolder string  `json:"account_holder" validate:"required"`
	AccountNumber string  `json:"account_number" validate:"required"`
}

// PayoutSubmission is the provider-agnostic outbound payout request.
type PayoutSubmission struct {
	PayoutRef     string
	Amount        float64
	BankCode      string
	AccountHolder string
	AccountNumber string
	Description   string
}
