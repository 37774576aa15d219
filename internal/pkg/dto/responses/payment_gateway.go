package responses

// PayoutResult is the provider-agnostic acknowledgement for a submitted
// payout. Settlement arrives later via webhook.
type PayoutResult struct {
	ProviderRef string
	Status      string
}

// CollectionStatus is the provider's current view of an inbound collection,
// used to short-circuit the two-phase accept when the payment already
// auto-completed.
type CollectionStatus struct {
	TransactionID string
	Status        string
	Amount        float64
}

// WithdrawalResponse is returned to the clinic-side initiation endpoint.
type WithdrawalResponse struct {
	WithdrawalID string  `json:"withdrawal_id"`
	PayoutRef    string  `json:"payout_ref"`
	Amount       float64 `json:"amount"`
	Fee          float64 `json:"fee"`
	Status       string  `json:"status"`
}
