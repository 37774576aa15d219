package controllers

import (
	"crypto/subtle"
	"io"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/app/services/core/webhooks"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WebhookController struct {
	Classifier     *webhooks.Classifier
	WebhookUsecase contracts.WebhookUsecase
	InternalConfig *config.InternalConfig
	Log            *zap.Logger
}

func NewWebhookController(
	classifier *webhooks.Classifier,
	webhookUsecase contracts.WebhookUsecase,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) *WebhookController {
	return &WebhookController{
		Classifier:     classifier,
		WebhookUsecase: webhookUsecase,
		InternalConfig: internalConfig,
		Log:            logger,
	}
}

// CollectionWebhook receives inbound deposit callbacks on
// POST /payments/webhooks/{provider}/collection.
func (ctrl *WebhookController) CollectionWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	body, ok := ctrl.readVerifiedBody(w, r, provider)
	if !ok {
		return
	}

	envelope, err := ctrl.Classifier.ClassifyCollection(provider, body)
	if err != nil {
		utils.BuildWebhookErrorResponse(ctrl.Log, w, err)
		return
	}

	result, err := ctrl.WebhookUsecase.ProcessCollection(r.Context(), envelope)
	if err != nil {
		utils.BuildWebhookErrorResponse(ctrl.Log, w, err)
		return
	}
	ctrl.acknowledge(w, result)
}

// PayoutWebhook receives payout settlement callbacks on
// POST /payments/webhooks/{provider}/payout.
func (ctrl *WebhookController) PayoutWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	body, ok := ctrl.readVerifiedBody(w, r, provider)
	if !ok {
		return
	}

	envelope, err := ctrl.Classifier.ClassifyPayout(provider, body)
	if err != nil {
		utils.BuildWebhookErrorResponse(ctrl.Log, w, err)
		return
	}

	result, err := ctrl.WebhookUsecase.ProcessPayout(r.Context(), envelope)
	if err != nil {
		utils.BuildWebhookErrorResponse(ctrl.Log, w, err)
		return
	}
	ctrl.acknowledge(w, result)
}

// readVerifiedBody reads the raw payload and checks the shared-secret header
// on rails that carry one. The raw bytes are kept as-is for the classifier
// and the audit archive.
func (ctrl *WebhookController) readVerifiedBody(w http.ResponseWriter, r *http.Request, provider string) ([]byte, bool) {
	if provider == constvars.ProviderXendit {
		token := r.Header.Get(constvars.HeaderCallbackToken)
		expected := ctrl.InternalConfig.Xendit.CallbackToken
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			ctrl.Log.Warn("WebhookController rejected callback with bad token",
				zap.String(constvars.LoggingProviderKey, provider),
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
			)
			utils.BuildWebhookResponse(w, constvars.StatusUnauthorized, http.StatusText(constvars.StatusUnauthorized))
			return nil, false
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.BuildWebhookErrorResponse(ctrl.Log, w, exceptions.ErrReadBody(err))
		return nil, false
	}
	return body, true
}

func (ctrl *WebhookController) acknowledge(w http.ResponseWriter, result *contracts.WebhookResult) {
	if result.Processed || result.Duplicate {
		utils.BuildWebhookResponse(w, constvars.StatusOK, constvars.WebhookAckProcessed)
		return
	}
	utils.BuildWebhookResponse(w, constvars.StatusOK, constvars.WebhookAckIgnored)
}
