// Package payment holds the adapters to external payment gateways.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/shopline/backend/internal/domain/payment"
)

const razorpayGatewayName = "razorpay"

// maxResponseBytes bounds how much of a gateway response is read
const maxResponseBytes = 1 << 20

// RazorpayAdapter implements payment.Gateway for Razorpay
type RazorpayAdapter struct {
	config     *RazorpayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRazorpayAdapter creates a new Razorpay adapter
func NewRazorpayAdapter(config *RazorpayConfig, logger *zap.Logger) (*RazorpayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayNotConfigured, err)
	}
	return &RazorpayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.timeout(),
		},
		logger: logger,
	}, nil
}

// Name returns the gateway identifier
func (a *RazorpayAdapter) Name() string {
	return razorpayGatewayName
}

// CreateIntent creates a Razorpay order for the amount
func (a *RazorpayAdapter) CreateIntent(ctx context.Context, req *payment.CreateIntentRequest) (*payment.Intent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(razorpayCreateOrderRequest{
		Amount:   payment.ToMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, razorpayOrdersPath, body)
	if err != nil {
		return nil, err
	}
	intent, err := a.parseOrder(respBody)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Razorpay order created",
		zap.String("gateway_order_id", intent.ID),
		zap.String("receipt", intent.Receipt),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency),
	)
	return intent, nil
}

// FetchIntent reads back a Razorpay order
func (a *RazorpayAdapter) FetchIntent(ctx context.Context, gatewayOrderID string) (*payment.Intent, error) {
	if gatewayOrderID == "" {
		return nil, payment.ErrMissingVerifyFields
	}
	respBody, err := a.doRequest(ctx, http.MethodGet, fmt.Sprintf(razorpayOrderPath, url.PathEscape(gatewayOrderID)), nil)
	if err != nil {
		return nil, err
	}
	return a.parseOrder(respBody)
}

// VerifySignature checks hex(HMAC-SHA256(secret, order_id + "|" + payment_id))
func (a *RazorpayAdapter) VerifySignature(v payment.Verification) error {
	if err := v.Validate(); err != nil {
		return err
	}
	expected := a.sign(v.GatewayOrderID + "|" + v.GatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(v.Signature)) {
		return payment.ErrSignatureMismatch
	}
	return nil
}

func (a *RazorpayAdapter) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(a.config.KeySecret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *RazorpayAdapter) parseOrder(body []byte) (*payment.Intent, error) {
	var order razorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%w: malformed order response: %v", payment.ErrGatewayRequestFailed, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: order response has no id", payment.ErrGatewayRequestFailed)
	}
	return &payment.Intent{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    a.config.KeyID,
		Receipt:  order.Receipt,
		Status:   order.Status,
	}, nil
}

// doRequest sends an authenticated request to the Razorpay API
func (a *RazorpayAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.baseURL()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.KeyID, a.config.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", payment.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errResp razorpayErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", payment.ErrGatewayRequestFailed, errResp.Error.Code, errResp.Error.Description)
		}
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

var _ payment.Gateway = (*RazorpayAdapter)(nil)
