package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
	"github.com/noah-isme/storefront-bundle/internal/ratelimit"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CurrencyCode       string
	Tiers              pricing.TierTable
	MissingPrice       pricing.MissingPricePolicy
	PriceDataFile      string
	RedisURL           string
	PriceCacheTTL      time.Duration
	StorefrontBaseURL  string
	FormsEndpoint      string
	HTTPClientTimeout  time.Duration
	IdempotencyTTL     time.Duration
	BodyLimitBytes     int64
	CORSAllowedOrigins []string
	RateLimitForms     ratelimit.Rate
	RateLimitCart      ratelimit.Rate
	Obs                ObsConfig
}

// ObsConfig groups the OBS_* observability switches.
type ObsConfig struct {
	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	MetricsBucketsMS   string
	EnablePrometheus   bool
	EnableTracing      bool
	TracingExporter    string
	OTLPEndpoint       string
	TracingSampleRatio float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	tiers, err := pricing.ParseTiers(k.String("BUNDLE_TIERS"))
	if err != nil {
		return nil, fmt.Errorf("BUNDLE_TIERS: %w", err)
	}
	policy, err := pricing.ParseMissingPricePolicy(k.String("MISSING_PRICE_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("MISSING_PRICE_POLICY: %w", err)
	}

	formsRate, err := ratelimit.ParseRate(valueOrDefault(k.String("RATE_LIMIT_FORMS"), "5-M"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_FORMS: %w", err)
	}
	cartRate, err := ratelimit.ParseRate(valueOrDefault(k.String("RATE_LIMIT_CART"), "60-M"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_CART: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), pricing.DefaultCurrency)),
		Tiers:              tiers,
		MissingPrice:       policy,
		PriceDataFile:      strings.TrimSpace(k.String("PRICE_DATA_FILE")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		PriceCacheTTL:      parseDuration(k.String("PRICE_CACHE_TTL"), "5m"),
		StorefrontBaseURL:  strings.TrimRight(strings.TrimSpace(k.String("STOREFRONT_BASE_URL")), "/"),
		FormsEndpoint:      strings.TrimSpace(k.String("FORMS_ENDPOINT")),
		HTTPClientTimeout:  parseDuration(k.String("HTTP_CLIENT_TIMEOUT"), "5s"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		BodyLimitBytes:     parseInt64(k.String("BODY_LIMIT_BYTES"), 1<<20),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RateLimitForms:     formsRate,
		RateLimitCart:      cartRate,
		Obs: ObsConfig{
			LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "storefront"),
			MetricsBucketsMS:   k.String("OBS_METRICS_BUCKETS_MS"),
			EnablePrometheus:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:      parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:    valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:       strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		},
	}

	if !pricing.ValidCurrency(cfg.CurrencyCode) {
		return nil, fmt.Errorf("CURRENCY_CODE %q is not an ISO 4217 code", cfg.CurrencyCode)
	}
	if cfg.StorefrontBaseURL == "" {
		return nil, errors.New("STOREFRONT_BASE_URL is required")
	}
	if err := validateURL(cfg.StorefrontBaseURL); err != nil {
		return nil, fmt.Errorf("STOREFRONT_BASE_URL: %w", err)
	}
	if cfg.FormsEndpoint != "" {
		if err := validateURL(cfg.FormsEndpoint); err != nil {
			return nil, fmt.Errorf("FORMS_ENDPOINT: %w", err)
		}
	}
	if cfg.BodyLimitBytes <= 0 {
		return nil, errors.New("BODY_LIMIT_BYTES must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
