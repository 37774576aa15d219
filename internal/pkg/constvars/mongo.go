package constvars

const (
	MongoCollectionSelections      = "selections"
	MongoCollectionPendingBookings = "pending_bookings"
	MongoCollectionOrders          = "orders"
	MongoCollectionWithdrawals     = "withdrawals"
	MongoCollectionClinics         = "clinics"
	MongoCollectionTests           = "medical_tests"
	MongoCollectionSubscriptions   = "subscriptions"
	MongoCollectionPlans           = "subscription_plans"
	MongoCollectionNotifications   = "notifications"
	MongoCollectionAlerts          = "operational_alerts"
)
