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

type clinicMongoRepository struct {
	Collection *mongo.Collection
}

var (
	clinicRepositoryInstance contracts.ClinicRepository
	onceClinicRepository     sync.Once
)

func NewClinicMongoRepository(db *mongo.Database) contracts.ClinicRepository {
	onceClinicRepository.Do(func() {
		clinicRepositoryInstance = &clinicMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionClinics),
		}
	})
	return clinicRepositoryInstance
}

func (r *clinicMongoRepository) FindByID(ctx context.Context, clinicID string) (*models.Clinic, error) {
	objectID, err := primitive.ObjectIDFromHex(clinicID)
	if err != nil {
		return nil, exceptions.ErrMongoDBNotObjectID(err)
	}
	var clinic models.Clinic
	err = r.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&clinic)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &clinic, nil
}

func (r *clinicMongoRepository) IncrementBalance(ctx context.Context, clinicID string, amount float64) error {
	objectID, err := primitive.ObjectIDFromHex(clinicID)
	if err != nil {
		return exceptions.ErrMongoDBNotObjectID(err)
	}
	update := bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := r.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, update); err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	return nil
}

func (r *clinicMongoRepository) DebitBalanceIfSufficient(ctx context.Context, clinicID string, amount float64) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(clinicID)
	if err != nil {
		return false, exceptions.ErrMongoDBNotObjectID(err)
	}
	// The balance condition lives inside the filter, so two concurrent
	// withdrawals cannot both pass a read-then-write check.
	filter := bson.M{
		"_id":     objectID,
		"balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"balance": -amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, exceptions.ErrMongoDBUpdateDocument(err)
	}
	return result.ModifiedCount == 1, nil
}
