package settlements

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/models"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type subscriptionPlanMongoRepository struct {
	Collection *mongo.Collection
}

var (
	planRepositoryInstance contracts.SubscriptionPlanRepository
	oncePlanRepository     sync.Once
)

func NewSubscriptionPlanMongoRepository(db *mongo.Database) contracts.SubscriptionPlanRepository {
	oncePlanRepository.Do(func() {
		planRepositoryInstance = &subscriptionPlanMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionPlans),
		}
	})
	return planRepositoryInstance
}

func (r *subscriptionPlanMongoRepository) FindByID(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	objectID, err := primitive.ObjectIDFromHex(planID)
	if err != nil {
		return nil, exceptions.ErrMongoDBNotObjectID(err)
	}
	var plan models.SubscriptionPlan
	err = r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &plan, nil
}
