// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/wattgrid_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Marketplace.FreeMonthlyQuotations)
	assert.Equal(t, uint32(64*1024), cfg.Password.Memory)
	assert.Equal(t, uint8(4), cfg.Password.Parallelism)
	assert.Equal(t, 16, cfg.Password.SaltLength)
	assert.Equal(t, 4*time.Second, cfg.Redis.PoolTimeout)
	assert.Equal(t, "wattgrid", cfg.Otel.ServiceNamespace)
	assert.Equal(t, 30, cfg.Marketplace.SubscriptionTermDays)
	assert.Equal(t, "INR", cfg.Marketplace.Currency)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, 5, cfg.RateLimit.LoginRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, MailTransportLog, cfg.Mail.Transport)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
marketplace:
  free_monthly_quotations: 5
otp:
  max_attempts: 4
`), 0o600))

	t.Setenv("OTP_MAX_ATTEMPTS", "6")
	t.Setenv("ARGON2_MEMORY", "32768")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Marketplace.FreeMonthlyQuotations)
	assert.Equal(t, 6, cfg.OTP.MaxAttempts)
	assert.Equal(t, uint32(32768), cfg.Password.Memory)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "database url",
			env:  map[string]string{"DATABASE_URL": ""},
			want: "DATABASE_URL is required",
		},
		{
			name: "smtp host",
			env:  map[string]string{"MAIL_TRANSPORT": "smtp"},
			want: "SMTP_HOST is required",
		},
		{
			name: "sendgrid key",
			env:  map[string]string{"MAIL_TRANSPORT": "sendgrid"},
			want: "SENDGRID_API_KEY is required",
		},
		{
			name: "unknown transport",
			env:  map[string]string{"MAIL_TRANSPORT": "pigeon"},
			want: "unknown mail transport",
		},
		{
			name: "log transport in production",
			env:  map[string]string{"ENVIRONMENT": "production"},
			want: "not allowed in production",
		},
		{
			name: "otp attempts",
			env:  map[string]string{"OTP_MAX_ATTEMPTS": "0"},
			want: "otp.max_attempts",
		},
		{
			name: "argon2 parallelism",
			env:  map[string]string{"ARGON2_PARALLELISM": "0"},
			want: "password.parallelism",
		},
		{
			name: "argon2 memory",
			env:  map[string]string{"ARGON2_MEMORY": "16"},
			want: "password.memory",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestPlanPrice(t *testing.T) {
	m := MarketplaceConfig{
		LocalPlanPrice:    100,
		StatePlanPrice:    200,
		NationalPlanPrice: 300,
	}

	price, ok := m.PlanPrice("state")
	require.True(t, ok)
	assert.Equal(t, int64(200), price)

	_, ok = m.PlanPrice("galactic")
	assert.False(t, ok)
}
