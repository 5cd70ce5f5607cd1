// AngelaMos | 2026
// handler_test.go

package quotation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattgrid/marketplace-api/internal/middleware"
)

func newRouter(f *fixture, userID, role string) chi.Router {
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), userID, role)))
		})
	})
	r.Route("/enquiries", h.RegisterEnquiryRoutes)
	h.RegisterRoutes(r)
	return r
}

func postQuote(r http.Handler, enquiryID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/enquiries/"+enquiryID+"/quote", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func validBody() map[string]any {
	return map[string]any{
		"total_price":   48000.5,
		"delivery_days": 7,
		"notes":         "Ex-works Pune",
	}
}

func TestCreateHandler(t *testing.T) {
	f := newFixture()
	router := newRouter(f, "seller-1", middleware.RoleSeller)

	rec := postQuote(router, "enq-1", validBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Quotation submitted successfully", resp.Message)
	assert.Equal(t, "seller-1", resp.Quotation.SellerID)
	assert.Equal(t, "enq-1", resp.Quotation.EnquiryID)
	assert.Equal(t, StatusSubmitted, resp.Quotation.Status)
}

func TestCreateHandler_IgnoresBodySeller(t *testing.T) {
	f := newFixture()
	router := newRouter(f, "seller-1", middleware.RoleSeller)

	body := validBody()
	body["seller_id"] = "seller-evil"

	rec := postQuote(router, "enq-1", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.repo.quotes, 1)
	assert.Equal(t, "seller-1", f.repo.quotes[0].SellerID)
}

func TestCreateHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		enquiryID  string
		body       map[string]any
		wantStatus int
		wantMsg    string
	}{
		{"not found", "enq-404", validBody(), http.StatusNotFound, "Enquiry not found"},
		{"closed", "enq-closed", validBody(), http.StatusBadRequest,
			"Enquiry is no longer accepting quotations"},
		{"missing price", "enq-1", map[string]any{"delivery_days": 3},
			http.StatusBadRequest, "Validation failed"},
		{"zero delivery days", "enq-1", map[string]any{"total_price": 10, "delivery_days": 0},
			http.StatusBadRequest, "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			router := newRouter(f, "seller-1", middleware.RoleSeller)

			rec := postQuote(router, tt.enquiryID, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)["error"])
		})
	}
}

func TestCreateHandler_Duplicate(t *testing.T) {
	f := newFixture()
	router := newRouter(f, "seller-1", middleware.RoleSeller)

	require.Equal(t, http.StatusCreated, postQuote(router, "enq-1", validBody()).Code)

	rec := postQuote(router, "enq-1", validBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t,
		"You have already submitted a quotation for this enquiry",
		decode(t, rec)["error"],
	)
}

func TestCreateHandler_QuotaBody(t *testing.T) {
	f := newFixture()
	router := newRouter(f, "seller-1", middleware.RoleSeller)

	for _, id := range []string{"enq-1", "enq-2", "enq-3"} {
		require.Equal(t, http.StatusCreated, postQuote(router, id, validBody()).Code)
	}

	rec := postQuote(router, "enq-4", validBody())
	require.Equal(t, http.StatusForbidden, rec.Code)

	body := decode(t, rec)
	assert.Contains(t, body["error"], "Monthly quotation limit reached")
	assert.InDelta(t, 3, body["limit"], 0)
	assert.InDelta(t, 3, body["used"], 0)
}

func TestCreateHandler_BuyerForbidden(t *testing.T) {
	f := newFixture()
	router := newRouter(f, "buyer-1", middleware.RoleBuyer)

	rec := postQuote(router, "enq-1", validBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", decode(t, rec)["error"])
	assert.Empty(t, f.repo.quotes)
}

func TestListMine(t *testing.T) {
	f := newFixture()
	router := newRouter(f, "seller-1", middleware.RoleSeller)

	require.Equal(t, http.StatusCreated, postQuote(router, "enq-1", validBody()).Code)
	require.Equal(t, http.StatusCreated, postQuote(router, "enq-2", validBody()).Code)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-quotations?page=1&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 2)
}
