package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
)

// Delivery methods accepted on public bookings. Anything else is rejected at
// the classifier boundary instead of silently defaulting.
const (
	DeliveryMethodInPerson  = "in_person"
	DeliveryMethodHomeVisit = "home_visit"
)

// Fallback line item substituted when a selection references a test deleted
// between checkout initiation and payment confirmation. Orders carrying it are
// flagged for manual review.
const (
	UnknownTestName  = "Unknown Test"
	UnknownTestPrice = 0
)
