// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoStub struct {
	counts *MarketplaceCounts
	err    error
	calls  int
}

func (r *repoStub) Counts(context.Context, time.Time) (*MarketplaceCounts, error) {
	r.calls++
	return r.counts, r.err
}

func newRouter(cfg HandlerConfig) chi.Router {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSystemStats(t *testing.T) {
	repo := &repoStub{counts: &MarketplaceCounts{
		Buyers:              12,
		Sellers:             30,
		PendingKYC:          4,
		OpenEnquiries:       7,
		QuotationsThisMonth: 19,
		ActiveSubscriptions: 5,
	}}

	router := newRouter(HandlerConfig{
		Repository: repo,
		DBStats:    func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 2} },
		RedisStats: func() *redis.PoolStats { return &redis.PoolStats{Hits: 10, TotalConns: 3} },
		DBPing:     func(context.Context) error { return nil },
		RedisPing:  func(context.Context) error { return nil },
	})

	rec := get(router, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotNil(t, body.Marketplace)
	assert.Equal(t, 30, body.Marketplace.Sellers)
	assert.Equal(t, 19, body.Marketplace.QuotationsThisMonth)
	assert.True(t, body.Database.Healthy)
	require.NotNil(t, body.Database.Stats)
	assert.Equal(t, 25, body.Database.Stats.MaxOpenConnections)
	assert.True(t, body.Redis.Healthy)
	require.NotNil(t, body.Redis.Stats)
	assert.Equal(t, uint32(3), body.Redis.Stats.TotalConns)
	assert.NotEmpty(t, body.Runtime.GoVersion)
}

func TestSystemStats_DatabaseDown(t *testing.T) {
	repo := &repoStub{}

	router := newRouter(HandlerConfig{
		Repository: repo,
		DBPing:     func(context.Context) error { return errors.New("connection refused") },
	})

	rec := get(router, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Database.Healthy)
	assert.Nil(t, body.Marketplace)
	assert.Zero(t, repo.calls)
}

func TestSystemStats_CountsFailure(t *testing.T) {
	repo := &repoStub{err: errors.New("relation does not exist")}

	rec := get(newRouter(HandlerConfig{Repository: repo}), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Marketplace)
	assert.Equal(t, 1, repo.calls)
}

func TestPoolStatsUnconfigured(t *testing.T) {
	router := newRouter(HandlerConfig{})

	rec := get(router, "/stats/db")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "null", rec.Body.String())

	rec = get(router, "/stats/runtime")
	require.Equal(t, http.StatusOK, rec.Code)

	var rt RuntimeStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rt))
	assert.Positive(t, rt.NumCPU)
}
