package routers

import (
	"medilab-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachPaymentRoutes(
	router chi.Router,
	webhookController *controllers.WebhookController,
	withdrawalController *controllers.WithdrawalController,
) {
	router.Post("/webhooks/{provider}/collection", webhookController.CollectionWebhook)
	router.Post("/webhooks/{provider}/payout", webhookController.PayoutWebhook)
	router.Post("/withdrawals", withdrawalController.CreateWithdrawal)
}
