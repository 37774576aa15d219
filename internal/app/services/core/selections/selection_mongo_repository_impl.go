package selections

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

type selectionMongoRepository struct {
	Collection *mongo.Collection
}

var (
	selectionRepositoryInstance contracts.SelectionRepository
	onceSelectionRepository     sync.Once
)

func NewSelectionMongoRepository(db *mongo.Database) contracts.SelectionRepository {
	onceSelectionRepository.Do(func() {
		selectionRepositoryInstance = &selectionMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionSelections),
		}
	})
	return selectionRepositoryInstance
}

func (r *selectionMongoRepository) FindPendingByPatientID(ctx context.Context, patientID string) ([]models.Selection, error) {
	filter := bson.M{
		"patient_id": patientID,
		"status":     models.SelectionStatusPending,
	}
	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	var selections []models.Selection
	if err := cursor.All(ctx, &selections); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return selections, nil
}

func (r *selectionMongoRepository) MarkBooked(ctx context.Context, selectionIDs []string) error {
	objectIDs := make([]primitive.ObjectID, 0, len(selectionIDs))
	for _, id := range selectionIDs {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return exceptions.ErrMongoDBNotObjectID(err)
		}
		objectIDs = append(objectIDs, objectID)
	}

	// The pending filter makes the transition one-way: a selection already
	// booked by a concurrent delivery is left untouched.
	filter := bson.M{
		"_id":    bson.M{"$in": objectIDs},
		"status": models.SelectionStatusPending,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.SelectionStatusBooked,
		"updated_at": time.Now().UTC(),
	}}
	if _, err := r.Collection.UpdateMany(ctx, filter, update); err != nil {
		return exceptions.ErrMongoDBUpdateDocument(err)
	}
	return nil
}
