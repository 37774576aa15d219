package constvars

// Payment rail identifiers. The pair (provider, transaction id) is the
// idempotency key for every webhook-driven mutation.
const (
	ProviderOy     = "oy"
	ProviderXendit = "xendit"
)

// OyPaymentStatus is a typed collection status returned by OY.
type OyPaymentStatus string

const (
	OyPaymentStatusCreated           OyPaymentStatus = "CREATED"
	OyPaymentStatusWaitingPayment    OyPaymentStatus = "WAITING_PAYMENT"
	OyPaymentStatusWaitingApproval   OyPaymentStatus = "WAITING_APPROVAL"
	OyPaymentStatusPaymentInProgress OyPaymentStatus = "PAYMENT_IN_PROGRESS"
	OyPaymentStatusComplete          OyPaymentStatus = "COMPLETE"
	OyPaymentStatusIncomplete        OyPaymentStatus = "INCOMPLETE"
	OyPaymentStatusExpired           OyPaymentStatus = "EXPIRED"
	OyPaymentStatusFailed            OyPaymentStatus = "PAYMENT_FAILED"
)

// OyDisbursementStatus is a typed payout status returned by OY.
type OyDisbursementStatus string

const (
	OyDisbursementStatusProcessing OyDisbursementStatus = "PROCESSING"
	OyDisbursementStatusSuccess    OyDisbursementStatus = "SUCCESS"
	OyDisbursementStatusFailed     OyDisbursementStatus = "FAILED"
)

// XenditInvoiceStatus is a typed invoice status returned by Xendit.
type XenditInvoiceStatus string

const (
	XenditInvoiceStatusPending XenditInvoiceStatus = "PENDING"
	XenditInvoiceStatusPaid    XenditInvoiceStatus = "PAID"
	XenditInvoiceStatusSettled XenditInvoiceStatus = "SETTLED"
	XenditInvoiceStatusExpired XenditInvoiceStatus = "EXPIRED"
)

// XenditDisbursementStatus is a typed payout status returned by Xendit.
type XenditDisbursementStatus string

const (
	XenditDisbursementStatusPending   XenditDisbursementStatus = "PENDING"
	XenditDisbursementStatusCompleted XenditDisbursementStatus = "COMPLETED"
	XenditDisbursementStatusFailed    XenditDisbursementStatus = "FAILED"
)

// Metadata keys transported as opaque key/value pairs on provider callbacks.
const (
	MetadataKeyPatientID       = "patient_id"
	MetadataKeyOrderKey        = "order_key"
	MetadataKeyDeliveryMethod  = "delivery_method"
	MetadataKeyDeliveryAddress = "delivery_address"
	MetadataKeyType            = "type"
	MetadataKeyPlanID          = "subscription_plan_id"
	MetadataKeyCartID          = "cart_id"
	MetadataKeyCustomerEmail   = "customer_email"

	MetadataTypeSubscription = "subscription"
)
