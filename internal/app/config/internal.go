package config

type InternalConfig struct {
	App        App
	Payments   AppPayments
	Oy         AppOy
	Xendit     AppXendit
	Mailer     AppMailer
	Calendar   AppCalendar
	Dispatcher AppDispatcher
}

type App struct {
	Env                        string
	Port                       string
	Version                    string
	Timezone                   string
	EndpointPrefix             string
	MaxRequests                int
	ShutdownTimeoutInSeconds   int
	RequestBodyLimitInMegabyte int
	AdminRecipientID           string
	FinanceEmail               string
}

// AppPayments holds the money-affecting engine constants. They are explicit
// configuration passed into the engine, never implicit singleton lookups.
type AppPayments struct {
	// ReconcileTolerance is the fixed absolute margin allowed between the
	// computed total and the provider-reported amount.
	ReconcileTolerance float64
	// FeeRateOy / FeeRateXendit are the platform fee rates per payment rail.
	FeeRateOy     float64
	FeeRateXendit float64
	// AdminFeeOy is the payer-side markup OY adds to the settled amount.
	AdminFeeOy float64
	// WithdrawalFee is charged per payout and refunded together with the
	// amount when a payout fails.
	WithdrawalFee float64
	// PendingBookingTTLInMinutes must exceed the providers' maximum callback
	// latency; TTL expiry is the only GC for pending bookings.
	PendingBookingTTLInMinutes int
	// ProviderTimeoutInSeconds bounds outbound provider calls. A timeout is
	// an unknown outcome, surfaced as an error so the provider retries.
	ProviderTimeoutInSeconds int
	// TxnLockTTLInSeconds bounds the per-transaction redis lock.
	TxnLockTTLInSeconds int
}

type AppOy struct {
	BaseUrl  string
	Username string
	ApiKey   string
}

type AppXendit struct {
	BaseUrl       string
	APIKey        string
	CallbackToken string
}

type AppMailer struct {
	EmailSender string
	Queue       string
}

type AppCalendar struct {
	BaseUrl             string
	ServiceAccountEmail string
	PrivateKeyPEM       string
	MaxAttempts         int
	BackoffBaseInMillis int
	RequestsPerSecond   float64
}

type AppDispatcher struct {
	Workers   int
	QueueSize int
}
