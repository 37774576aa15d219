package database

import (
	"context"
	"fmt"
	"medilab-service/internal/app/config"
	"medilab-service/internal/pkg/constvars"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewMongoDB(driverConfig *config.DriverConfig) *mongo.Client {
	connectionString := fmt.Sprintf(
		"mongodb://%s:%s@%s:%s",
		driverConfig.MongoDB.Username,
		driverConfig.MongoDB.Password,
		driverConfig.MongoDB.Host,
		driverConfig.MongoDB.Port,
	)
	dbOptions := options.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(context.TODO(), dbOptions)
	if err != nil {
		logrus.Fatalf("Failed to connect to mongo database: %s", err.Error())
	}
	err = client.Ping(context.TODO(), nil)
	if err != nil {
		logrus.Fatalf("Failed to ping or test the connection to mongo database: %s", err.Error())
	}
	logrus.Println("Successfully connected to mongo database")
	return client
}

// EnsureIndexes creates the indexes the payment engine depends on. The unique
// compound order index is the storage-level second line of defense for the
// (provider, transactionId) idempotency key; the pending-booking TTL index is
// the only garbage collection for abandoned public checkouts.
func EnsureIndexes(ctx context.Context, client *mongo.Client, dbName string, pendingBookingTTL time.Duration) error {
	db := client.Database(dbName)

	_, err := db.Collection(constvars.MongoCollectionOrders).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "payment_ref", Value: 1},
			{Key: "payment_method", Value: 1},
			{Key: "clinic_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(constvars.MongoCollectionPendingBookings).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_ref", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(pendingBookingTTL.Seconds())),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(constvars.MongoCollectionWithdrawals).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "payout_ref", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(constvars.MongoCollectionSubscriptions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "payment_refs", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(constvars.MongoCollectionSelections).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "patient_id", Value: 1},
			{Key: "status", Value: 1},
		},
	})
	return err
}
