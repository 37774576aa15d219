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

type withdrawalMongoRepository struct {
	Collection *mongo.Collection
}

var (
	withdrawalRepositoryInstance contracts.WithdrawalRepository
	onceWithdrawalRepository     sync.Once
)

func NewWithdrawalMongoRepository(db *mongo.Database) contracts.WithdrawalRepository {
	onceWithdrawalRepository.Do(func() {
		withdrawalRepositoryInstance = &withdrawalMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionWithdrawals),
		}
	})
	return withdrawalRepositoryInstance
}

func (r *withdrawalMongoRepository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	now := time.Now().UTC()
	if withdrawal.CreatedAt.IsZero() {
		withdrawal.CreatedAt = now
	}
	withdrawal.UpdatedAt = now
	result, err := r.Collection.InsertOne(ctx, withdrawal)
	if err != nil {
		return nil, exceptions.ErrMongoDBInsertDocument(err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		withdrawal.ID = oid.Hex()
	}
	return withdrawal, nil
}

func (r *withdrawalMongoRepository) FindByPayoutRef(ctx context.Context, payoutRef string) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.Collection.FindOne(ctx, bson.M{"payout_ref": payoutRef}).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &withdrawal, nil
}

func (r *withdrawalMongoRepository) TransitionFromProcessing(ctx context.Context, withdrawal *models.Withdrawal) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(withdrawal.ID)
	if err != nil {
		return false, exceptions.ErrMongoDBNotObjectID(err)
	}
	now := time.Now().UTC()
	// Matching on the processing status makes terminal states sticky: a late
	// or repeated callback finds nothing to update.
	filter := bson.M{
		"_id":    objectID,
		"status": models.WithdrawalStatusProcessing,
	}
	update := bson.M{
		"$set": bson.M{
			"status":          withdrawal.Status,
			"provider_status": withdrawal.ProviderStatus,
			"failure_reason":  withdrawal.FailureReason,
			"updated_at":      now,
		},
		"$push": bson.M{
			"status_history": models.StatusChange{
				Status:    string(withdrawal.Status),
				ChangedAt: now,
				Note:      withdrawal.FailureReason,
			},
		},
	}
	result, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return result.ModifiedCount == 1, nil
}
