package orders

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

type orderMongoRepository struct {
	Collection *mongo.Collection
}

var (
	orderRepositoryInstance contracts.OrderRepository
	onceOrderRepository     sync.Once
)

func NewOrderMongoRepository(db *mongo.Database) contracts.OrderRepository {
	onceOrderRepository.Do(func() {
		orderRepositoryInstance = &orderMongoRepository{
			Collection: db.Collection(constvars.MongoCollectionOrders),
		}
	})
	return orderRepositoryInstance
}

func (r *orderMongoRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	result, err := r.Collection.InsertOne(ctx, order)
	if err != nil {
		return nil, exceptions.ErrMongoDBInsertDocument(err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid.Hex()
	}
	return order, nil
}

func (r *orderMongoRepository) FindByPaymentRef(ctx context.Context, provider, paymentRef string) ([]models.Order, error) {
	filter := bson.M{
		"payment_method": provider,
		"payment_ref":    paymentRef,
	}
	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, exceptions.ErrMongoDBIterateDocuments(err)
	}
	return orders, nil
}
