// AngelaMos | 2026
// razorpay.go

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/wattgrid/marketplace-api/internal/config"
)

var (
	ErrNotConfigured = errors.New("payment gateway not configured")
	ErrOrderNotFound = errors.New("order not found")
)

const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

// Notes is the gateway's free-form key/value bag. The API returns an empty
// JSON array instead of an object when no notes were set.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*n = Notes{}
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}

	out := make(Notes, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	*n = out
	return nil
}

type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Notes      Notes  `json:"notes"`
	CreatedAt  int64  `json:"created_at"`
}

type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type RazorpayClient struct {
	client    *resty.Client
	keyID     string
	keySecret string
}

func NewRazorpayClient(cfg config.RazorpayConfig) *RazorpayClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &RazorpayClient{
		client:    client,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

func (c *RazorpayClient) configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

func (c *RazorpayClient) CreateOrder(
	ctx context.Context,
	req CreateOrderRequest,
) (*Order, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}

	var order Order
	var apiErr errorEnvelope

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&order).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if resp.IsError() {
		apiErr.Error.StatusCode = resp.StatusCode()
		return nil, fmt.Errorf("create order: %w", &apiErr.Error)
	}

	return &order, nil
}

func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}

	var order Order
	var apiErr errorEnvelope

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", orderID).
		SetResult(&order).
		SetError(&apiErr).
		Get("/orders/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound ||
		(resp.StatusCode() == http.StatusBadRequest && apiErr.Error.Code == "BAD_REQUEST_ERROR") {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, ErrOrderNotFound)
	}
	if resp.IsError() {
		apiErr.Error.StatusCode = resp.StatusCode()
		return nil, fmt.Errorf("fetch order: %w", &apiErr.Error)
	}

	return &order, nil
}

// VerifySignature checks the checkout callback signature, an HMAC-SHA256 of
// "order_id|payment_id" keyed with the account secret.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	if !c.configured() {
		return false
	}
	return ValidSignature(c.keySecret, orderID, paymentID, signature)
}

func ValidSignature(secret, orderID, paymentID, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))

	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign produces the signature the gateway would send for a payment.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
