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

type pendingBookingMongoRepository struct {
	Collection *mongo.Collection
}

var (
	pendingBookingRepositoryInstance contracts.PendingBookingRepository
	oncePendingBookingRepository     sync.Once
)

func NewPendingBookingMongoRepository(db *mongo.Database) contracts.PendingBookingRepository {
	oncePendingBookingRepository.Do(func() {
		pendingBookingRepositoryInstance = &pendingBookingMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionPendingBookings),
		}
	})
	return pendingBookingRepositoryInstance
}

func (r *pendingBookingMongoRepository) FindByTransactionRef(ctx context.Context, transactionRef string) (*models.PendingBooking, error) {
	var booking models.PendingBooking
	err := r.Collection.FindOne(ctx, bson.M{"transaction_ref": transactionRef}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return &booking, nil
}

func (r *pendingBookingMongoRepository) CreatePendingBooking(ctx context.Context, booking *models.PendingBooking) (*models.PendingBooking, error) {
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	result, err := r.Collection.InsertOne(ctx, booking)
	if err != nil {
		return nil, exceptions.ErrMongoDBInsertDocument(err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return booking, nil
}

func (r *pendingBookingMongoRepository) DeleteByTransactionRef(ctx context.Context, transactionRef string) error {
	if _, err := r.Collection.DeleteOne(ctx, bson.M{"transaction_ref": transactionRef}); err != nil {
		return exceptions.ErrMongoDBDeleteDocument(err)
	}
	return nil
}
