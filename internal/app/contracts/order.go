package contracts

import (
	"context"
	"medilab-service/internal/app/models"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByPaymentRef(ctx context.Context, provider, paymentRef string) ([]models.Order, error)
}
