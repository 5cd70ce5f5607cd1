// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	r.RemoteAddr = ip + ":51000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRateLimiter_BlocksAfterWindowQuota(t *testing.T) {
	_, rdb := newTestRedis(t)

	var limited []string
	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit:    PerWindow(5, 15*time.Minute),
		KeyFunc:  KeyByIPWithPrefix("login"),
		FailOpen: true,
		OnLimited: func(r *http.Request, _ *redis_rate.Result) {
			limited = append(limited, ClientIP(r))
		},
	}).Handler(okHandler)

	for i := range 5 {
		rec := hit(h, "10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := hit(h, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later", errorBody(t, rec))

	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retry, 1)
	assert.Equal(t, []string{"10.0.0.1"}, limited)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)
}

func TestRateLimiter_PrefixesIsolateBuckets(t *testing.T) {
	_, rdb := newTestRedis(t)

	login := NewRateLimiter(rdb, RateLimitConfig{
		Limit:   PerWindow(1, time.Minute),
		KeyFunc: KeyByIPWithPrefix("login"),
	}).Handler(okHandler)
	otp := NewRateLimiter(rdb, RateLimitConfig{
		Limit:   PerWindow(1, time.Minute),
		KeyFunc: KeyByIPWithPrefix("otp"),
	}).Handler(okHandler)

	assert.Equal(t, http.StatusOK, hit(login, "10.0.0.3").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(login, "10.0.0.3").Code)
	assert.Equal(t, http.StatusOK, hit(otp, "10.0.0.3").Code)
}

func TestRateLimiter_FallsBackWhenRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit:    PerWindow(2, time.Hour),
		FailOpen: true,
	}).Handler(okHandler)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.4").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.4").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.4").Code)
}

func TestRateLimiter_Bypass(t *testing.T) {
	_, rdb := newTestRedis(t)

	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit:      PerWindow(1, time.Hour),
		BypassFunc: func(*http.Request) bool { return true },
	}).Handler(okHandler)

	for range 3 {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.5").Code)
	}
}

func TestPerWindow(t *testing.T) {
	l := PerWindow(5, 15*time.Minute)
	assert.Equal(t, 5, l.Rate)
	assert.Equal(t, 5, l.Burst)
	assert.Equal(t, 15*time.Minute, l.Period)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:4000"
	assert.Equal(t, "192.0.2.10", ClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.1, 203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
