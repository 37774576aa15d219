package constvars

// Plain-text webhook acknowledgements. The caller is a payment provider, not
// an app client, so these are bare status lines rather than JSON envelopes.
const (
	WebhookAckProcessed = "OK"
	WebhookAckIgnored   = "IGNORED"
)

const (
	WithdrawalSubmittedMessage = "Withdrawal submitted"
)
