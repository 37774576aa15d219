package notifications

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type notificationMongoRepository struct {
	Collection *mongo.Collection
	Log        *zap.Logger
}

var (
	notificationRepositoryInstance contracts.NotificationSink
	onceNotificationRepository     sync.Once
)

func NewNotificationMongoRepository(db *mongo.Database, logger *zap.Logger) contracts.NotificationSink {
	onceNotificationRepository.Do(func() {
		notificationRepositoryInstance = &notificationMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionNotifications),
			Log:        logger,
		}
	})
	return notificationRepositoryInstance
}

func (r *notificationMongoRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	result, err := r.Collection.InsertOne(ctx, notification)
	if err != nil {
		return exceptions.ErrMongoDBInsertDocument(err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		notification.ID = oid.Hex()
	}
	return nil
}
