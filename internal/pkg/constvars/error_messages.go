package constvars

// Client-facing messages. Providers receive plain status text instead, but the
// same catalogue backs internal error construction.
const (
	ErrClientCannotProcessRequest          = "Cannot process your request"
	ErrClientSomethingWrongWithApplication = "Something is wrong with the application"
	ErrClientServerLongRespond             = "Server takes too long to respond"
	ErrClientUnknownDeliveryMethod         = "Unknown delivery method"
	ErrClientDuplicateCallback             = "Callback already processed"
)

// Developer-facing messages.
const (
	ErrDevCannotParseJSON    = "Failed to parse JSON request body"
	ErrDevValidationFailed   = "Request validation failed"
	ErrDevCannotMarshalJSON  = "Failed to marshal data to JSON"
	ErrDevCreateHTTPRequest  = "Failed to create HTTP request"
	ErrDevSendHTTPRequest    = "Failed to send HTTP request"
	ErrDevServerProcess      = "Failed to process the request"
	ErrDevDeadlineExceeded   = "Deadline exceeded while processing request"
	ErrDevMissingRequestID   = "Request ID missing from context"
	ErrDevReadRequestBody    = "Failed to read request body"
	ErrDevUnknownProvider    = "Callback payload does not match any known provider"
	ErrDevStagingSetNotFound = "No staged selections found for the paying identity"
	ErrDevPendingBookingGone = "Pending booking not found or already consumed"
	ErrDevReconcileMismatch  = "Provider-reported amount does not match computed total"

	ErrDevDBFailedToFindDocument     = "Failed to find document on database"
	ErrDevDBFailedToInsertDocument   = "Failed to insert document to database"
	ErrDevDBFailedToUpdateDocument   = "Failed to update document on database"
	ErrDevDBFailedToDeleteDocument   = "Failed to delete document on database"
	ErrDevDBFailedToIterateDocuments = "Failed to iterate documents on database"
	ErrDevDBStringNotObjectID        = "Given string cannot be converted to ObjectID"
	ErrDevDBTransactionAborted       = "Database transaction aborted"

	ErrDevRedisGetData      = "Failed to get data from redis"
	ErrDevRedisSetData      = "Failed to set data to redis"
	ErrDevRedisDeleteData   = "Failed to delete data from redis"
	ErrDevRedisAcquireLock  = "Failed to acquire redis lock"
	ErrDevRedisReleaseLock  = "Failed to release redis lock"
	ErrDevRabbitMQPublish   = "Failed to publish message to queue %s"
	ErrDevMinioCreateObject = "Failed to create object on bucket %s"

	ErrDevPaymentGatewayRequest  = "Payment gateway request failed: %s"
	ErrDevPaymentGatewayDecode   = "Failed to decode payment gateway response"
	ErrDevPaymentGatewayTimeout  = "Payment gateway request timed out; outcome unknown"
	ErrDevCalendarCreateEvent    = "Failed to create calendar event"
	ErrDevCalendarSignAssertion  = "Failed to sign calendar service-account assertion"
	ErrDevWithdrawalInsufficient = "Clinic balance below requested withdrawal amount"
)
