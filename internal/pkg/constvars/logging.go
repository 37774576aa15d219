package constvars

const (
	LoggingRequestIDKey     = "request_id"
	LoggingRequestKey       = "request"
	LoggingMethodKey        = "method"
	LoggingEndpointKey      = "endpoint"
	LoggingRemoteAddrKey    = "remote_addr"
	LoggingUserAgentKey     = "user_agent"
	LoggingQueryKey         = "query"
	LoggingStatusCodeKey    = "status_code"
	LoggingDurationKey      = "duration"
	LoggingSuccessKey       = "success"
	LoggingProviderKey      = "provider"
	LoggingTransactionIDKey = "transaction_id"
	LoggingPaymentStatusKey = "payment_status"
	LoggingOrderIDKey       = "order_id"
	LoggingClinicIDKey      = "clinic_id"
	LoggingPatientIDKey     = "patient_id"
	LoggingWithdrawalIDKey  = "withdrawal_id"
	LoggingFlowKey          = "flow"
	LoggingSideEffectKey    = "side_effect"
	LoggingAttemptKey       = "attempt"
	LoggingAmountKey        = "amount"
)
