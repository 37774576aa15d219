package catalog

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

type testMongoRepository struct {
	Collection *mongo.Collection
}

var (
	testRepositoryInstance contracts.TestRepository
	onceTestRepository     sync.Once
)

func NewTestMongoRepository(db *mongo.Database) contracts.TestRepository {
	onceTestRepository.Do(func() {
		testRepositoryInstance = &testMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionTests),
		}
	})
	return testRepositoryInstance
}

func (r *testMongoRepository) FindByID(ctx context.Context, testID string) (*models.MedicalTest, error) {
	objectID, err := primitive.ObjectIDFromHex(testID)
	if err != nil {
		return nil, exceptions.ErrMongoDBNotObjectID(err)
	}
	var test models.MedicalTest
	err = r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&test)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &test, nil
}
