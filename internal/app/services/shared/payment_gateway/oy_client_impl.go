package payment_gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"medilab-service/internal/app/config"
	"medilab-service/internal/app/contracts"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/dto/requests"
	"medilab-service/internal/pkg/dto/responses"
	"medilab-service/internal/pkg/exceptions"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type oyClient struct {
	BaseUrl  string
	Username string
	ApiKey   string
	Client   *http.Client
	Log      *zap.Logger
}

func NewOyClient(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGatewayClient {
	timeout := time.Duration(internalConfig.Payments.ProviderTimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &oyClient{
		BaseUrl:  internalConfig.Oy.BaseUrl,
		Username: internalConfig.Oy.Username,
		ApiKey:   internalConfig.Oy.ApiKey,
		Client:   &http.Client{Timeout: timeout},
		Log:      logger,
	}
}

func (c *oyClient) Provider() string {
	return constvars.ProviderOy
}

func (c *oyClient) SubmitPayout(ctx context.Context, request *requests.PayoutSubmission) (*responses.PayoutResult, error) {
	payload := map[string]any{
		"recipient_bank":    request.BankCode,
		"recipient_account": request.AccountNumber,
		"amount":            request.Amount,
		"partner_trx_id":    request.PayoutRef,
		"note":              request.Description,
	}

	var result struct {
		TrxID  string `json:"trx_id"`
		Status struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
	}
	if err := c.do(ctx, constvars.MethodPost, "/api/remit", payload, &result); err != nil {
		return nil, err
	}

	return &responses.PayoutResult{
		ProviderRef: result.TrxID,
		Status:      result.Status.Code,
	}, nil
}

func (c *oyClient) GetCollectionStatus(ctx context.Context, transactionID string) (*responses.CollectionStatus, error) {
	var result struct {
		PaymentID string  `json:"payment_id"`
		Status    string  `json:"status"`
		Amount    float64 `json:"amount"`
	}
	path := fmt.Sprintf("/api/payment-checkout/status/%s", transactionID)
	if err := c.do(ctx, constvars.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return &responses.CollectionStatus{
		TransactionID: result.PaymentID,
		Status:        result.Status,
		Amount:        result.Amount,
	}, nil
}

func (c *oyClient) AcceptPendingCollection(ctx context.Context, transactionID string) error {
	payload := requests.OyAcceptCollection{PaymentID: transactionID}
	return c.do(ctx, constvars.MethodPost, "/api/payment-checkout/accept", payload, nil)
}

func (c *oyClient) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return exceptions.ErrCannotMarshalJSON(err)
		}
		body = bytes.NewBuffer(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseUrl+path, body)
	if err != nil {
		return exceptions.ErrCreateHTTPRequest(err)
	}
	httpReq.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	httpReq.Header.Set("x-oy-username", c.Username)
	httpReq.Header.Set("x-api-key", c.ApiKey)

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		// A timeout is an unknown outcome, never success; the caller surfaces
		// it so the provider retries the webhook.
		if errors.Is(err, context.DeadlineExceeded) {
			return exceptions.ErrPaymentGatewayTimeout(err)
		}
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		c.Log.Error("oyClient request returned non-2xx",
			zap.String("path", path),
			zap.Int(constvars.LoggingStatusCodeKey, resp.StatusCode),
			zap.String("response", string(raw)),
		)
		return exceptions.ErrPaymentGatewayRequest(nil, fmt.Sprintf("oy %s returned %d", path, resp.StatusCode))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return exceptions.ErrPaymentGatewayDecode(err)
	}
	return nil
}
