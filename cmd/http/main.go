package main

import (
	"context"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/delivery/http/controllers"
	"medilab-service/internal/app/delivery/http/middlewares"
	"medilab-service/internal/app/delivery/http/routers"
	"medilab-service/internal/app/drivers/database"
	"medilab-service/internal/app/drivers/logger"
	"medilab-service/internal/app/drivers/messaging"
	"medilab-service/internal/app/drivers/storage"
	"medilab-service/internal/app/services/core/catalog"
	"medilab-service/internal/app/services/core/notifications"
	"medilab-service/internal/app/services/core/orders"
	"medilab-service/internal/app/services/core/selections"
	"medilab-service/internal/app/services/core/settlements"
	"medilab-service/internal/app/services/core/webhooks"
	"medilab-service/internal/app/services/shared/calendar"
	"medilab-service/internal/app/services/shared/dispatcher"
	"medilab-service/internal/app/services/shared/locker"
	"medilab-service/internal/app/services/shared/mailer"
	"medilab-service/internal/app/services/shared/payment_gateway"
	sharedstorage "medilab-service/internal/app/services/shared/storage"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		logrus.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	mongoClient := database.NewMongoDB(driverConfig)
	redisClient := database.NewRedisClient(driverConfig)
	rabbitConn := messaging.NewRabbitMQ(driverConfig)
	minioClient := storage.NewMinio(driverConfig)
	chiRouter := chi.NewRouter()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndex()
	pendingBookingTTL := time.Duration(internalConfig.Payments.PendingBookingTTLInMinutes) * time.Minute
	if err := database.EnsureIndexes(indexCtx, mongoClient, driverConfig.MongoDB.DbName, pendingBookingTTL); err != nil {
		logrus.Fatalf("Failed to ensure mongo indexes: %v", err)
	}

	bootstrap := config.Bootstrap{
		Router:         chiRouter,
		MongoDB:        mongoClient,
		Redis:          redisClient,
		RabbitMQ:       rabbitConn,
		Logger:         zapLogger,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}
	bootstrapTheApp(&bootstrap, minioClient)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	logrus.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		logrus.Printf("Error during shutdown: %v", err)
	}

	logrus.Println("Server exiting")
}

func bootstrapTheApp(bootstrap *config.Bootstrap, minioClient *minio.Client) {
	db := bootstrap.MongoDB.Database(bootstrap.DriverConfig.MongoDB.DbName)

	// Shared services
	lockService := locker.NewRedisLocker(bootstrap.Redis, bootstrap.InternalConfig.Payments.TxnLockTTLInSeconds)
	mailService, err := mailer.NewRabbitMQMailer(bootstrap.RabbitMQ, bootstrap.InternalConfig, bootstrap.Logger)
	if err != nil {
		logrus.Fatalf("Failed to initialize mailer: %v", err)
	}
	calendarService, err := calendar.NewCalendarService(bootstrap.InternalConfig, bootstrap.Logger)
	if err != nil {
		logrus.Fatalf("Failed to initialize calendar service: %v", err)
	}
	auditArchive := sharedstorage.NewMinioAuditArchive(minioClient, bootstrap.DriverConfig, bootstrap.Logger)
	gateways := []contracts.PaymentGatewayClient{
		payment_gateway.NewOyClient(bootstrap.InternalConfig, bootstrap.Logger),
		payment_gateway.NewXenditClient(bootstrap.InternalConfig, bootstrap.Logger),
	}

	// Repositories
	selectionRepository := selections.NewSelectionMongoRepository(db)
	pendingBookingRepository := selections.NewPendingBookingMongoRepository(db)
	testRepository := catalog.NewTestMongoRepository(db)
	orderRepository := orders.NewOrderMongoRepository(db)
	clinicRepository := settlements.NewClinicMongoRepository(db)
	withdrawalRepository := settlements.NewWithdrawalMongoRepository(db)
	subscriptionRepository := settlements.NewSubscriptionMongoRepository(db)
	planRepository := settlements.NewSubscriptionPlanMongoRepository(db)
	notificationSink := notifications.NewNotificationMongoRepository(db, bootstrap.Logger)
	pushSender := notifications.NewRedisPushSender(bootstrap.Redis)
	txnRunner := database.NewMongoTxnRunner(bootstrap.MongoDB)

	// Alerting and side effects
	alertService := notifications.NewAlertService(db, mailService, bootstrap.InternalConfig, bootstrap.Logger)
	sideEffects := dispatcher.NewDispatcher(
		notificationSink,
		pushSender,
		mailService,
		calendarService,
		alertService,
		auditArchive,
		bootstrap.InternalConfig,
		bootstrap.Logger,
	)
	bootstrap.DispatcherStop = sideEffects.Stop

	// Engine
	fanOutEngine := orders.NewFanOutEngine(testRepository, alertService, bootstrap.Logger)
	reconciler := orders.NewReconciler(bootstrap.InternalConfig.Payments)
	settlementUsecase := settlements.NewSettlementUsecase(
		clinicRepository,
		withdrawalRepository,
		subscriptionRepository,
		alertService,
		bootstrap.InternalConfig.Payments,
		bootstrap.Logger,
	)
	guard := webhooks.NewIdempotencyGuard(lockService, orderRepository, subscriptionRepository, withdrawalRepository, bootstrap.Logger)
	webhookUsecase := webhooks.NewWebhookUsecase(
		guard,
		fanOutEngine,
		reconciler,
		orderRepository,
		selectionRepository,
		pendingBookingRepository,
		planRepository,
		settlementUsecase,
		gateways,
		txnRunner,
		sideEffects,
		alertService,
		bootstrap.Logger,
	)
	withdrawalUsecase := settlements.NewWithdrawalUsecase(
		clinicRepository,
		withdrawalRepository,
		gateways,
		bootstrap.InternalConfig.Payments,
		bootstrap.Logger,
	)

	// Delivery
	classifier := webhooks.NewClassifier()
	webhookController := controllers.NewWebhookController(classifier, webhookUsecase, bootstrap.InternalConfig, bootstrap.Logger)
	withdrawalController := controllers.NewWithdrawalController(withdrawalUsecase, bootstrap.Logger)
	httpMiddlewares := middlewares.NewMiddlewares(bootstrap.InternalConfig, bootstrap.Logger)

	routers.SetupRoutes(bootstrap.Router, bootstrap.InternalConfig, httpMiddlewares, webhookController, withdrawalController)
}
