package contracts

import (
	"context"
	"medilab-service/internal/app/models"
)

type TestRepository interface {
	// FindByID returns (nil, nil) when the test does not exist; a deleted
	// test must not abort order creation.
	FindByID(ctx context.Context, testID string) (*models.MedicalTest, error)
}
