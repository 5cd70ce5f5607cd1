// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App         AppConfig         `koanf:"app"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Redis       RedisConfig       `koanf:"redis"`
	JWT         JWTConfig         `koanf:"jwt"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	CORS        CORSConfig        `koanf:"cors"`
	Log         LogConfig         `koanf:"log"`
	Otel        OtelConfig        `koanf:"otel"`
	OTP         OTPConfig         `koanf:"otp"`
	Password    PasswordConfig    `koanf:"password"`
	Marketplace MarketplaceConfig `koanf:"marketplace"`
	Mail        MailConfig        `koanf:"mail"`
	Razorpay    RazorpayConfig    `koanf:"razorpay"`
	Cloudinary  CloudinaryConfig  `koanf:"cloudinary"`
	Upload      UploadConfig      `koanf:"upload"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL             string        `koanf:"url"`
	PoolSize        int           `koanf:"pool_size"`
	MinIdleConns    int           `koanf:"min_idle_conns"`
	DialTimeout     time.Duration `koanf:"dial_timeout"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	PoolTimeout     time.Duration `koanf:"pool_timeout"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type JWTConfig struct {
	PrivateKeyPath    string        `koanf:"private_key_path"`
	PublicKeyPath     string        `koanf:"public_key_path"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

// RateLimitConfig holds the fixed windows for the three per-IP limiters:
// general API traffic, login attempts and OTP-bearing endpoints.
type RateLimitConfig struct {
	Requests      int           `koanf:"requests"`
	Window        time.Duration `koanf:"window"`
	LoginRequests int           `koanf:"login_requests"`
	LoginWindow   time.Duration `koanf:"login_window"`
	OTPRequests   int           `koanf:"otp_requests"`
	OTPWindow     time.Duration `koanf:"otp_window"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint         string  `koanf:"endpoint"`
	ServiceName      string  `koanf:"service_name"`
	ServiceNamespace string  `koanf:"service_namespace"`
	Enabled          bool    `koanf:"enabled"`
	Insecure         bool    `koanf:"insecure"`
	SampleRate       float64 `koanf:"sample_rate"`
}

type OTPConfig struct {
	Expiry      time.Duration `koanf:"expiry"`
	MaxAttempts int           `koanf:"max_attempts"`
	BcryptCost  int           `koanf:"bcrypt_cost"`
}

// PasswordConfig tunes argon2id. Memory is in KiB. Changing any value makes
// existing hashes rehash on the next successful login.
type PasswordConfig struct {
	Memory      uint32 `koanf:"memory"`
	Iterations  uint32 `koanf:"iterations"`
	Parallelism uint8  `koanf:"parallelism"`
	KeyLength   uint32 `koanf:"key_length"`
	SaltLength  int    `koanf:"salt_length"`
}

// MarketplaceConfig carries the business constants. Plan prices are in
// paise.
type MarketplaceConfig struct {
	FreeMonthlyQuotations int    `koanf:"free_monthly_quotations"`
	SubscriptionTermDays  int    `koanf:"subscription_term_days"`
	Currency              string `koanf:"currency"`
	LocalPlanPrice        int64  `koanf:"local_plan_price"`
	StatePlanPrice        int64  `koanf:"state_plan_price"`
	NationalPlanPrice     int64  `koanf:"national_plan_price"`
}

const (
	MailTransportSMTP     = "smtp"
	MailTransportSendGrid = "sendgrid"
	MailTransportLog      = "log"
)

type MailConfig struct {
	Transport      string `koanf:"transport"`
	FromAddress    string `koanf:"from_address"`
	FromName       string `koanf:"from_name"`
	SMTPHost       string `koanf:"smtp_host"`
	SMTPPort       int    `koanf:"smtp_port"`
	SMTPUsername   string `koanf:"smtp_username"`
	SMTPPassword   string `koanf:"smtp_password"`
	SendGridAPIKey string `koanf:"sendgrid_api_key"`
	FrontendURL    string `koanf:"frontend_url"`
}

type RazorpayConfig struct {
	KeyID     string        `koanf:"key_id"`
	KeySecret string        `koanf:"key_secret"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
}

type CloudinaryConfig struct {
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	Folder    string `koanf:"folder"`
}

type UploadConfig struct {
	MaxBytes int64 `koanf:"max_bytes"`
}

// Load builds the process configuration from defaults, an optional YAML file,
// a best-effort .env file and the environment, in that order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "WattGrid Marketplace",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":          10,
		"redis.min_idle_conns":     5,
		"redis.dial_timeout":       "5s",
		"redis.read_timeout":       "3s",
		"redis.write_timeout":      "3s",
		"redis.pool_timeout":       "4s",
		"redis.conn_max_idle_time": "5m",

		"jwt.access_token_expire": "24h",
		"jwt.issuer":              "wattgrid-marketplace",
		"jwt.audience":            "wattgrid-marketplace-api",
		"jwt.private_key_path":    "keys/private.pem",
		"jwt.public_key_path":     "keys/public.pem",

		"rate_limit.requests":       100,
		"rate_limit.window":         "15m",
		"rate_limit.login_requests": 5,
		"rate_limit.login_window":   "15m",
		"rate_limit.otp_requests":   10,
		"rate_limit.otp_window":     "15m",

		"cors.allowed_origins": []string{"http://localhost:3000", "http://localhost:5173"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":           false,
		"otel.insecure":          true,
		"otel.sample_rate":       0.1,
		"otel.service_name":      "wattgrid-marketplace",
		"otel.service_namespace": "wattgrid",

		"otp.expiry":       "10m",
		"otp.max_attempts": 3,
		"otp.bcrypt_cost":  12,

		"password.memory":      64 * 1024,
		"password.iterations":  1,
		"password.parallelism": 4,
		"password.key_length":  32,
		"password.salt_length": 16,

		"marketplace.free_monthly_quotations": 3,
		"marketplace.subscription_term_days":  30,
		"marketplace.currency":                "INR",
		"marketplace.local_plan_price":        99900,
		"marketplace.state_plan_price":        299900,
		"marketplace.national_plan_price":     499900,

		"mail.transport":    MailTransportLog,
		"mail.from_address": "no-reply@wattgrid.example",
		"mail.from_name":    "WattGrid Marketplace",
		"mail.smtp_port":    587,
		"mail.frontend_url": "http://localhost:3000",

		"razorpay.base_url": "https://api.razorpay.com/v1",
		"razorpay.timeout":  "10s",

		"cloudinary.folder": "kyc-documents",

		"upload.max_bytes": 5 << 20,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"NODE_ENV":                    "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"LOGIN_RATE_LIMIT_REQUESTS":   "rate_limit.login_requests",
	"LOGIN_RATE_LIMIT_WINDOW":     "rate_limit.login_window",
	"OTP_RATE_LIMIT_REQUESTS":     "rate_limit.otp_requests",
	"OTP_RATE_LIMIT_WINDOW":       "rate_limit.otp_window",
	"OTP_EXPIRY":                  "otp.expiry",
	"OTP_MAX_ATTEMPTS":            "otp.max_attempts",
	"FREE_MONTHLY_QUOTATIONS":     "marketplace.free_monthly_quotations",
	"MAIL_TRANSPORT":              "mail.transport",
	"MAIL_FROM_ADDRESS":           "mail.from_address",
	"MAIL_FROM_NAME":              "mail.from_name",
	"SMTP_HOST":                   "mail.smtp_host",
	"SMTP_PORT":                   "mail.smtp_port",
	"SMTP_USER":                   "mail.smtp_username",
	"SMTP_PASSWORD":               "mail.smtp_password",
	"SENDGRID_API_KEY":            "mail.sendgrid_api_key",
	"FRONTEND_URL":                "mail.frontend_url",
	"RAZORPAY_KEY_ID":             "razorpay.key_id",
	"RAZORPAY_KEY_SECRET":         "razorpay.key_secret",
	"CLOUDINARY_CLOUD_NAME":       "cloudinary.cloud_name",
	"CLOUDINARY_API_KEY":          "cloudinary.api_key",
	"CLOUDINARY_API_SECRET":       "cloudinary.api_secret",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"REDIS_POOL_SIZE":             "redis.pool_size",
	"ARGON2_MEMORY":               "password.memory",
	"ARGON2_ITERATIONS":           "password.iterations",
	"ARGON2_PARALLELISM":          "password.parallelism",
	"OTEL_SERVICE_NAMESPACE":      "otel.service_namespace",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	switch c.Mail.Transport {
	case MailTransportSMTP:
		if c.Mail.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for smtp mail transport")
		}
	case MailTransportSendGrid:
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required for sendgrid mail transport")
		}
	case MailTransportLog:
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if c.Mail.Transport == MailTransportLog {
			return fmt.Errorf("mail transport 'log' is not allowed in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("otp.max_attempts must be at least 1")
	}

	if c.Password.Iterations < 1 || c.Password.Parallelism < 1 {
		return fmt.Errorf("password.iterations and password.parallelism must be at least 1")
	}

	if c.Password.Memory < 8*uint32(c.Password.Parallelism) {
		return fmt.Errorf("password.memory must be at least 8 KiB per thread")
	}

	if c.Password.KeyLength < 16 || c.Password.SaltLength < 8 {
		return fmt.Errorf("password.key_length must be >= 16 and password.salt_length >= 8")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PlanPrice returns the configured price in paise for a plan type.
func (m *MarketplaceConfig) PlanPrice(planType string) (int64, bool) {
	switch planType {
	case "local":
		return m.LocalPlanPrice, true
	case "state":
		return m.StatePlanPrice, true
	case "national":
		return m.NationalPlanPrice, true
	}
	return 0, false
}
