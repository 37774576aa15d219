package requests

import "medilab-service/internal/pkg/constvars"

// XenditInvoiceCallback is the JSON body Xendit posts on invoice events.
// The external_id field carries the partner transaction reference.
type XenditInvoiceCallback struct {
	ID         string                        `json:"id" validate:"required"`
	ExternalID string                        `json:"external_id"`
	Status     constvars.XenditInvoiceStatus `json:"status" validate:"required"`
	Amount     float64                       `json:"amount"`
	Currency   string                        `json:"currency,omitempty"`
	Metadata   map[string]string             `json:"metadata,omitempty"`
}

// XenditDisbursementCallback is the JSON body Xendit posts on payout events.
type XenditDisbursementCallback struct {
	ID            string                             `json:"id" validate:"required"`
	ExternalID    string                             `json:"external_id"`
	Status        constvars.XenditDisbursementStatus `json:"status" validate:"required"`
	Amount        float64                            `json:"amount"`
	FailureCode   string                             `json:"failure_code,omitempty"`
	BankCode      string                             `json:"bank_code,omitempty"`
	AccountNumber string                             `json:"account_holder_name,omitempty"`
}
