package database

import (
	"context"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/exceptions"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTxnRunner struct {
	Client *mongo.Client
}

func NewMongoTxnRunner(client *mongo.Client) contracts.TxnRunner {
	return &mongoTxnRunner{Client: client}
}

// WithTransaction runs fn inside one mongo session transaction. Repositories
// participate transparently: the session travels on the callback context.
func (t *mongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.Client.StartSession()
	if err != nil {
		return exceptions.ErrMongoDBTransaction(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	if err != nil {
		if _, ok := err.(*exceptions.CustomError); ok {
			return err
		}
		return exceptions.ErrMongoDBTransaction(err)
	}
	return nil
}
