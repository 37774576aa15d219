package requests

import "medilab-service/internal/pkg/constvars"

// OyCollectionCallback is the JSON body OY posts on inbound deposit events.
// Partner metadata travels as an opaque key/value map.
type OyCollectionCallback struct {
	PaymentID      string                    `json:"payment_id" validate:"required"`
	PartnerTrxID   string                    `json:"partner_trx_id"`
	Status         constvars.OyPaymentStatus `json:"status" validate:"required"`
	Amount         float64                   `json:"amount"`
	SenderName     string                    `json:"sender_name"`
	AdditionalData map[string]string         `json:"additional_data"`
}

// OyDisbursementCallback is the JSON body OY posts on payout settlement.
type OyDisbursementCallback struct {
	PayoutID      string                         `json:"payout_id" validate:"required"`
	TrxID         string                         `json:"trx_id"`
	Status        constvars.OyDisbursementStatus `json:"status" validate:"required"`
	Amount        float64                        `json:"amount"`
	FailureReason string                         `json:"failure_reason,omitempty"`
}

// OyAcceptCollection is the request body for the two-phase accept call.
type OyAcceptCollection struct {
	PaymentID string `json:"payment_id"`
}
