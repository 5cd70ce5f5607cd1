// AngelaMos | 2026
// metrics_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattgrid/marketplace-api/internal/metrics"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	reg := metrics.New()

	r := chi.NewRouter()
	r.Use(Instrument(reg))
	r.Get("/enquiries/{enquiryID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/plain", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/enquiries/"+id, nil))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))

	assert.InDelta(t, 3, testutil.ToFloat64(
		reg.HTTPRequests.WithLabelValues(http.MethodGet, "/enquiries/{enquiryID}", "204"),
	), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(
		reg.HTTPRequests.WithLabelValues(http.MethodGet, "/plain", "200"),
	), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(
		reg.HTTPRequests.WithLabelValues(http.MethodGet, "/enquiries/a", "204"),
	), 0)
}

func TestRegistryCounters(t *testing.T) {
	reg := metrics.New()

	reg.NotificationSent("otp")
	reg.NotificationFailed("otp")
	reg.NotificationFailed("otp")
	reg.QuotaRejected()
	reg.QuotationCreated("free")
	reg.RateLimitHit("login")

	assert.InDelta(t, 1, testutil.ToFloat64(reg.Notifications.WithLabelValues("otp", "sent")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(reg.Notifications.WithLabelValues("otp", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.QuotaRejections), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.QuotationsCreated.WithLabelValues("free")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.RateLimited.WithLabelValues("login")), 0)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "marketplace_free_tier_quota_rejections_total 1")

	n, err := testutil.GatherAndCount(reg.Gatherer(), "marketplace_free_tier_quota_rejections_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
