package webhooks

import (
	"fmt"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
)

// Classifier normalizes raw provider callbacks into provider-neutral
// envelopes. Everything downstream of it sees one status vocabulary and one
// flow label, regardless of rail.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// ClassifyCollection parses an inbound deposit callback. Unknown provider
// names are a hard error; unknown statuses classify as unhandled so the
// callback is acknowledged without side effects.
func (c *Classifier) ClassifyCollection(provider string, body []byte) (*models.WebhookEnvelope, error) {
	switch provider {
	case constvars.ProviderOy:
		return c.classifyOyCollection(body)
	case constvars.ProviderXendit:
		return c.classifyXenditCollection(body)
	default:
		return nil, exceptions.ErrUnknownProvider(fmt.Errorf("provider %q", provider))
	}
}

// ClassifyPayout parses an outbound payout settlement callback.
func (c *Classifier) ClassifyPayout(provider string, body []byte) (*models.WebhookEnvelope, error) {
	switch provider {
	case constvars.ProviderOy:
		return c.classifyOyPayout(body)
	case constvars.ProviderXendit:
		return c.classifyXenditPayout(body)
	default:
		return nil, exceptions.ErrUnknownProvider(fmt.Errorf("provider %q", provider))
	}
}

func (c *Classifier) classifyOyCollection(body []byte) (*models.WebhookEnvelope, error) {
	var callback requests.OyCollectionCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	if callback.PaymentID == "" {
		return nil, exceptions.ErrCannotParseJSON(fmt.Errorf("missing payment_id"))
	}

	var status models.WebhookStatus
	switch callback.Status {
	case constvars.OyPaymentStatusCreated,
		constvars.OyPaymentStatusWaitingPayment,
		constvars.OyPaymentStatusPaymentInProgress:
		status = models.WebhookStatusAccepted
	case constvars.OyPaymentStatusWaitingApproval:
		status = models.WebhookStatusPendingApproval
	case constvars.OyPaymentStatusComplete:
		status = models.WebhookStatusCompleted
	case constvars.OyPaymentStatusFailed:
		status = models.WebhookStatusFailed
	case constvars.OyPaymentStatusExpired, constvars.OyPaymentStatusIncomplete:
		status = models.WebhookStatusRejected
	default:
		status = models.WebhookStatusUnhandled
	}

	// OY's partner_trx_id is our checkout reference; payment_id is the
	// fallback when the checkout was created without one.
	transactionID := callback.PartnerTrxID
	if transactionID == "" {
		transactionID = callback.PaymentID
	}

	return &models.WebhookEnvelope{
		Provider:      constvars.ProviderOy,
		TransactionID: transactionID,
		ProviderRef:   callback.PaymentID,
		Status:        status,
		Flow:          flowFromMetadata(callback.AdditionalData),
		Amount:        callback.Amount,
		Metadata:      callback.AdditionalData,
		RawPayload:    body,
	}, nil
}

func (c *Classifier) classifyXenditCollection(body []byte) (*models.WebhookEnvelope, error) {
	var callback requests.XenditInvoiceCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	if callback.ID == "" {
		return nil, exceptions.ErrCannotParseJSON(fmt.Errorf("missing id"))
	}

	var status models.WebhookStatus
	switch callback.Status {
	case constvars.XenditInvoiceStatusPending:
		status = models.WebhookStatusAccepted
	case constvars.XenditInvoiceStatusPaid, constvars.XenditInvoiceStatusSettled:
		status = models.WebhookStatusCompleted
	case constvars.XenditInvoiceStatusExpired:
		status = models.WebhookStatusRejected
	default:
		status = models.WebhookStatusUnhandled
	}

	transactionID := callback.ExternalID
	if transactionID == "" {
		transactionID = callback.ID
	}

	return &models.WebhookEnvelope{
		Provider:      constvars.ProviderXendit,
		TransactionID: transactionID,
		ProviderRef:   callback.ID,
		Status:        status,
		Flow:          flowFromMetadata(callback.Metadata),
		Amount:        callback.Amount,
		Metadata:      callback.Metadata,
		RawPayload:    body,
	}, nil
}

func (c *Classifier) classifyOyPayout(body []byte) (*models.WebhookEnvelope, error) {
	var callback requests.OyDisbursementCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	if callback.PayoutID == "" {
		return nil, exceptions.ErrCannotParseJSON(fmt.Errorf("missing payout_id"))
	}

	var status models.WebhookStatus
	switch callback.Status {
	case constvars.OyDisbursementStatusProcessing:
		status = models.WebhookStatusAccepted
	case constvars.OyDisbursementStatusSuccess:
		status = models.WebhookStatusCompleted
	case constvars.OyDisbursementStatusFailed:
		status = models.WebhookStatusFailed
	default:
		status = models.WebhookStatusUnhandled
	}

	transactionID := callback.TrxID
	if transactionID == "" {
		transactionID = callback.PayoutID
	}

	return &models.WebhookEnvelope{
		Provider:      constvars.ProviderOy,
		TransactionID: transactionID,
		ProviderRef:   callback.PayoutID,
		Status:        status,
		Flow:          models.WebhookFlowPayout,
		Amount:        callback.Amount,
		FailureReason: callback.FailureReason,
		RawPayload:    body,
	}, nil
}

func (c *Classifier) classifyXenditPayout(body []byte) (*models.WebhookEnvelope, error) {
	var callback requests.XenditDisbursementCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	if callback.ID == "" {
		return nil, exceptions.ErrCannotParseJSON(fmt.Errorf("missing id"))
	}

	var status models.WebhookStatus
	switch callback.Status {
	case constvars.XenditDisbursementStatusPending:
		status = models.WebhookStatusAccepted
	case constvars.XenditDisbursementStatusCompleted:
		status = models.WebhookStatusCompleted
	case constvars.XenditDisbursementStatusFailed:
		status = models.WebhookStatusFailed
	default:
		status = models.WebhookStatusUnhandled
	}

	transactionID := callback.ExternalID
	if transactionID == "" {
		transactionID = callback.ID
	}

	return &models.WebhookEnvelope{
		Provider:      constvars.ProviderXendit,
		TransactionID: transactionID,
		ProviderRef:   callback.ID,
		Status:        status,
		Flow:          models.WebhookFlowPayout,
		Amount:        callback.Amount,
		FailureReason: callback.FailureCode,
		RawPayload:    body,
	}, nil
}

// flowFromMetadata routes a collection callback: an explicit subscription
// marker wins, a patient id means an authenticated cart checkout, and
// anything else is an anonymous public booking resolved via its staged
// record.
func flowFromMetadata(metadata map[string]string) models.WebhookFlow {
	if metadata[constvars.MetadataKeyType] == constvars.MetadataTypeSubscription {
		return models.WebhookFlowSubscription
	}
	if metadata[constvars.MetadataKeyPatientID] != "" {
		return models.WebhookFlowCart
	}
	return models.WebhookFlowPublic
}
