package settlements

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type subscriptionMongoRepository struct {
	Collection *mongo.Collection
}

var (
	subscriptionRepositoryInstance contracts.SubscriptionRepository
	onceSubscriptionRepository     sync.Once
)

func NewSubscriptionMongoRepository(db *mongo.Database) contracts.SubscriptionRepository {
	onceSubscriptionRepository.Do(func() {
		subscriptionRepositoryInstance = &subscriptionMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionSubscriptions),
		}
	})
	return subscriptionRepositoryInstance
}

func (r *subscriptionMongoRepository) FindActiveByOwnerID(ctx context.Context, ownerID string) (*models.Subscription, error) {
	filter := bson.M{
		"owner_id": ownerID,
		"end_date": bson.M{"$gt": time.Now().UTC()},
	}
	var subscription models.Subscription
	err := r.Collection.FindOne(ctx, filter).Decode(&subscription)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &subscription, nil
}

func (r *subscriptionMongoRepository) FindByPaymentRef(ctx context.Context, paymentRef string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.Collection.FindOne(ctx, bson.M{"payment_refs": paymentRef}).Decode(&subscription)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &subscription, nil
}

func (r *subscriptionMongoRepository) CreateSubscription(ctx context.Context, subscription *models.Subscription) (*models.Subscription, error) {
	now := time.Now().UTC()
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = now
	}
	subscription.UpdatedAt = now
	result, err := r.Collection.InsertOne(ctx, subscription)
	if err != nil {
		return nil, exceptions.ErrMongoDBInsertDocument(err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		subscription.ID = oid.Hex()
	}
	return subscription, nil
}

func (r *subscriptionMongoRepository) ExtendSubscription(ctx context.Context, subscription *models.Subscription) error {
	objectID, err := primitive.ObjectIDFromHex(subscription.ID)
	if err != nil {
		return exceptions.ErrMongoDBNotObjectID(err)
	}
	// End date, allowance and payment ref move in one update so a crash can
	// never extend without recording the ref that paid for it.
	latestRef := subscription.PaymentRefs[len(subscription.PaymentRefs)-1]
	update := bson.M{
		"$set": bson.M{
			"end_date":         subscription.EndDate,
			"report_allowance": subscription.ReportAllowance,
			"updated_at":       time.Now().UTC(),
		},
		"$addToSet": bson.M{"payment_refs": latestRef},
	}
	if _, err := r.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, update); err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	return nil
}
