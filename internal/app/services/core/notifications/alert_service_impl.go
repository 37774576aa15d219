package notifications

import (
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/metrics"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type alertService struct {
	Collection   *mongo.Collection
	Mailer       contracts.MailerService
	FinanceEmail string
	Log          *zap.Logger
}

var (
	alertServiceInstance contracts.AlertService
	onceAlertService     sync.Once
)

func NewAlertService(db *mongo.Database, mailer contracts.MailerService, internalConfig *config.InternalConfig, logger *zap.Logger) contracts.AlertService {
	onceAlertService.Do(func() {
		alertServiceInstance = &alertService{
			Collection:   db.Collection(constvars.MongoCollectionAlerts),
			Mailer:       mailer,
			FinanceEmail: internalConfig.App.FinanceEmail,
			Log:          logger,
		}
	})
	return alertServiceInstance
}

// Raise persists the alert and mails the finance desk. Both steps are
// best-effort: an alert failure must never take down the financial flow that
// reported the anomaly, so errors are logged and swallowed here.
func (s *alertService) Raise(ctx context.Context, alert *models.Alert) {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	metrics.OperatorAlertsTotal.WithLabelValues(string(alert.Kind)).Inc()

	if _, err := s.Collection.InsertOne(ctx, alert); err != nil {
		s.Log.Error("alertService failed to persist alert",
			zap.String("kind", string(alert.Kind)),
			zap.String(constvars.LoggingTransactionIDKey, alert.TransactionID),
			zap.Error(err),
		)
	}

	if s.FinanceEmail == "" {
		return
	}
	subject := fmt.Sprintf("[medilab] operator alert: %s", alert.Kind)
	body := fmt.Sprintf("Kind: %s\nProvider: %s\nTransaction: %s\n\n%s\n", alert.Kind, alert.Provider, alert.TransactionID, alert.Message)
	for key, value := range alert.Details {
		body += fmt.Sprintf("%s: %s\n", key, value)
	}
	if err := s.Mailer.SendEmail(ctx, s.FinanceEmail, subject, body); err != nil {
		s.Log.Error("alertService failed to email finance desk",
			zap.String("kind", string(alert.Kind)),
			zap.Error(err),
		)
	}
}
