// AngelaMos | 2026
// razorpay_test.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattgrid/marketplace-api/internal/config"
)

const (
	testKeyID     = "rzp_test_key"
	testKeySecret = "rzp_test_secret"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *RazorpayClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewRazorpayClient(config.RazorpayConfig{
		KeyID:     testKeyID,
		KeySecret: testKeySecret,
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSignature(t *testing.T) {
	sig := Sign(testKeySecret, "order_1", "pay_1")

	assert.True(t, ValidSignature(testKeySecret, "order_1", "pay_1", sig))
	assert.False(t, ValidSignature("other", "order_1", "pay_1", sig))
	assert.False(t, ValidSignature(testKeySecret, "order_2", "pay_1", sig))
	assert.False(t, ValidSignature(testKeySecret, "order_1", "pay_2", sig))
	assert.False(t, ValidSignature(testKeySecret, "order_1", "pay_1", "not-hex"))
	assert.False(t, ValidSignature(testKeySecret, "order_1", "pay_1", ""))
}

func TestVerifySignature_Unconfigured(t *testing.T) {
	client := NewRazorpayClient(config.RazorpayConfig{})
	sig := Sign("", "order_1", "pay_1")

	assert.False(t, client.VerifySignature("order_1", "pay_1", sig))
}

func TestNotes_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Notes
	}{
		{"empty array", `{"notes": []}`, Notes{}},
		{"null", `{"notes": null}`, Notes{}},
		{"object", `{"notes": {"user_id": "u1", "plan_type": "local"}}`,
			Notes{"user_id": "u1", "plan_type": "local"}},
		{"non string values", `{"notes": {"attempt": 2}}`, Notes{"attempt": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order Order
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &order))
			assert.Equal(t, tt.want, order.Notes)
		})
	}
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, testKeyID, user)
		assert.Equal(t, testKeySecret, pass)

		var req CreateOrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(99900), req.Amount)
		assert.Equal(t, "INR", req.Currency)
		assert.Equal(t, "u1", req.Notes["user_id"])

		writeJSON(w, http.StatusOK, map[string]any{
			"id":       "order_abc",
			"entity":   "order",
			"amount":   req.Amount,
			"currency": req.Currency,
			"receipt":  req.Receipt,
			"status":   OrderStatusCreated,
			"notes":    req.Notes,
		})
	})

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:   99900,
		Currency: "INR",
		Receipt:  "sub_1",
		Notes:    map[string]string{"user_id": "u1", "plan_type": "local"},
	})
	require.NoError(t, err)

	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(99900), order.Amount)
	assert.Equal(t, OrderStatusCreated, order.Status)
	assert.Equal(t, "local", order.Notes["plan_type"])
}

func TestCreateOrder_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "Authentication failed",
			},
		})
	})

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Authentication failed", apiErr.Description)
}

func TestFetchOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/order_paid":
			writeJSON(w, http.StatusOK, map[string]any{
				"id":          "order_paid",
				"amount":      299900,
				"amount_paid": 299900,
				"status":      OrderStatusPaid,
				"notes":       []string{},
			})
		case "/orders/order_missing":
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]string{
					"code":        "BAD_REQUEST_ERROR",
					"description": "The id provided does not exist",
				},
			})
		case "/orders/order_gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": map[string]string{
					"code":        "SERVER_ERROR",
					"description": "boom",
				},
			})
		}
	})

	ctx := context.Background()

	order, err := client.FetchOrder(ctx, "order_paid")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, order.Status)
	assert.Equal(t, int64(299900), order.AmountPaid)
	assert.Empty(t, order.Notes)

	_, err = client.FetchOrder(ctx, "order_missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = client.FetchOrder(ctx, "order_gone")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = client.FetchOrder(ctx, "order_broken")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "SERVER_ERROR", apiErr.Code)
}

func TestNotConfigured(t *testing.T) {
	client := NewRazorpayClient(config.RazorpayConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.FetchOrder(context.Background(), "order_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
