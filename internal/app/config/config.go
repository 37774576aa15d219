package config

import (
	"medilab-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			DbName:   utils.GetEnvString("MONGODB_DB_NAME", "medilab"),
			Username: utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "defaultPassword"),
		},
		Minio: Minio{
			Port:       utils.GetEnvString("MINIO_PORT", "9000"),
			Host:       utils.GetEnvString("MINIO_HOST", "localhost"),
			Username:   utils.GetEnvString("MINIO_USERNAME", "defaultUsername"),
			Password:   utils.GetEnvString("MINIO_PASSWORD", "defaultPassword"),
			BucketName: utils.GetEnvString("MINIO_BUCKET_NAME", "webhook-audit"),
			UseSSL:     utils.GetEnvBool("MINIO_USE_SSL", false),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", "development"),
			Port:                       utils.GetEnvString("APP_PORT", ":8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "Asia/Jakarta"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 100),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT_IN_SECONDS", 10),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 2),
			AdminRecipientID:           utils.GetEnvString("APP_ADMIN_RECIPIENT_ID", ""),
			FinanceEmail:               utils.GetEnvString("APP_FINANCE_EMAIL", ""),
		},
		Payments: AppPayments{
			ReconcileTolerance:         utils.GetEnvFloat("PAYMENTS_RECONCILE_TOLERANCE", 100),
			FeeRateOy:                  utils.GetEnvFloat("PAYMENTS_FEE_RATE_OY", 0.05),
			FeeRateXendit:              utils.GetEnvFloat("PAYMENTS_FEE_RATE_XENDIT", 0.05),
			AdminFeeOy:                 utils.GetEnvFloat("PAYMENTS_ADMIN_FEE_OY", 0),
			WithdrawalFee:              utils.GetEnvFloat("PAYMENTS_WITHDRAWAL_FEE", 5000),
			PendingBookingTTLInMinutes: utils.GetEnvInt("PAYMENTS_PENDING_BOOKING_TTL_IN_MINUTES", 1440),
			ProviderTimeoutInSeconds:   utils.GetEnvInt("PAYMENTS_PROVIDER_TIMEOUT_IN_SECONDS", 8),
			TxnLockTTLInSeconds:        utils.GetEnvInt("PAYMENTS_TXN_LOCK_TTL_IN_SECONDS", 30),
		},
		Oy: AppOy{
			BaseUrl:  utils.GetEnvString("OY_BASE_URL", "https://partner.oyindonesia.com"),
			Username: utils.GetEnvString("OY_USERNAME", ""),
			ApiKey:   utils.GetEnvString("OY_API_KEY", ""),
		},
		Xendit: AppXendit{
			BaseUrl:       utils.GetEnvString("XENDIT_BASE_URL", "https://api.xendit.co"),
			APIKey:        utils.GetEnvString("XENDIT_API_KEY", ""),
			CallbackToken: utils.GetEnvString("XENDIT_CALLBACK_TOKEN", ""),
		},
		Mailer: AppMailer{
			EmailSender: utils.GetEnvString("MAILER_EMAIL_SENDER", "noreply@medilab.id"),
			Queue:       utils.GetEnvString("MAILER_QUEUE", "mailer_queue"),
		},
		Calendar: AppCalendar{
			BaseUrl:             utils.GetEnvString("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3"),
			ServiceAccountEmail: utils.GetEnvString("CALENDAR_SERVICE_ACCOUNT_EMAIL", ""),
			PrivateKeyPEM:       utils.GetEnvString("CALENDAR_PRIVATE_KEY_PEM", ""),
			MaxAttempts:         utils.GetEnvInt("CALENDAR_MAX_ATTEMPTS", 3),
			BackoffBaseInMillis: utils.GetEnvInt("CALENDAR_BACKOFF_BASE_IN_MILLIS", 500),
			RequestsPerSecond:   utils.GetEnvFloat("CALENDAR_REQUESTS_PER_SECOND", 5),
		},
		Dispatcher: AppDispatcher{
			Workers:   utils.GetEnvInt("DISPATCHER_WORKERS", 4),
			QueueSize: utils.GetEnvInt("DISPATCHER_QUEUE_SIZE", 256),
		},
	}
}
