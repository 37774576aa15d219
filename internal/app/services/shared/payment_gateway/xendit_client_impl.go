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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type xenditClient struct {
	BaseUrl string
	ApiKey  string
	Client  *http.Client
	Log     *zap.Logger
}

func NewXenditClient(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGatewayClient {
	timeout := time.Duration(internalConfig.Payments.ProviderTimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &xenditClient{
		BaseUrl: internalConfig.Xendit.BaseUrl,
		ApiKey:  internalConfig.Xendit.APIKey,
		Client:  &http.Client{Timeout: timeout},
		Log:     logger,
	}
}

func (c *xenditClient) Provider() string {
	return constvars.ProviderXendit
}

func (c *xenditClient) SubmitPayout(ctx context.Context, request *requests.PayoutSubmission) (*responses.PayoutResult, error) {
	payload := map[string]any{
		"external_id":         request.PayoutRef,
		"bank_code":           request.BankCode,
		"account_holder_name": request.AccountHolder,
		"account_number":      request.AccountNumber,
		"amount":              request.Amount,
		"description":         request.Description,
	}

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	// Xendit deduplicates disbursements on this key, so retried submissions
	// must reuse the payout ref rather than a fresh random value.
	headers := map[string]string{"X-IDEMPOTENCY-KEY": request.PayoutRef}
	if err := c.do(ctx, constvars.MethodPost, "/disbursements", headers, payload, &result); err != nil {
		return nil, err
	}

	return &responses.PayoutResult{
		ProviderRef: result.ID,
		Status:      result.Status,
	}, nil
}

func (c *xenditClient) GetCollectionStatus(ctx context.Context, transactionID string) (*responses.CollectionStatus, error) {
	var result struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Amount float64 `json:"amount"`
	}
	path := fmt.Sprintf("/v2/invoices/%s", transactionID)
	if err := c.do(ctx, constvars.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}

	return &responses.CollectionStatus{
		TransactionID: result.ID,
		Status:        result.Status,
		Amount:        result.Amount,
	}, nil
}

// AcceptPendingCollection is a no-op for Xendit: invoices settle without a
// merchant approval step, so callbacks never arrive in a pending-approval
// state.
func (c *xenditClient) AcceptPendingCollection(ctx context.Context, transactionID string) error {
	c.Log.Warn("xenditClient AcceptPendingCollection called for a provider without an approval step",
		zap.String(constvars.LoggingTransactionIDKey, transactionID),
	)
	return nil
}

func (c *xenditClient) do(ctx context.Context, method, path string, headers map[string]string, payload, result any) error {
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
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	httpReq.SetBasicAuth(c.ApiKey, "")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return exceptions.ErrPaymentGatewayTimeout(err)
		}
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		c.Log.Error("xenditClient request returned non-2xx",
			zap.String("path", path),
			zap.Int(constvars.LoggingStatusCodeKey, resp.StatusCode),
			zap.String("response", string(raw)),
		)
		return exceptions.ErrPaymentGatewayRequest(nil, fmt.Sprintf("xendit %s returned %d", path, resp.StatusCode))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return exceptions.ErrPaymentGatewayDecode(err)
	}
	return nil
}
