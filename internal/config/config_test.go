package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
	"github.com/noah-isme/storefront-bundle/internal/ratelimit"
)

func baseEnv() map[string]string {
	return map[string]string{
		"STOREFRONT_BASE_URL":  "https://shop.example.com/",
		"CURRENCY_CODE":        "",
		"BUNDLE_TIERS":         "",
		"MISSING_PRICE_POLICY": "",
		"PRICE_CACHE_TTL":      "",
		"BODY_LIMIT_BYTES":     "",
		"FORMS_ENDPOINT":       "",
		"OBS_ENABLE_TRACING":   "",
		"RATE_LIMIT_FORMS":     "",
		"RATE_LIMIT_CART":      "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, "USD", cfg.CurrencyCode)
	require.Equal(t, "https://shop.example.com", cfg.StorefrontBaseURL)
	require.Equal(t, pricing.MissingPriceZero, cfg.MissingPrice)
	require.Equal(t, pricing.DefaultTiers().String(), cfg.Tiers.String())
	require.Equal(t, 5*time.Minute, cfg.PriceCacheTTL)
	require.EqualValues(t, 1<<20, cfg.BodyLimitBytes)
	require.False(t, cfg.Obs.EnableTracing)
	require.True(t, cfg.Obs.EnablePrometheus)
	require.Equal(t, ratelimit.Rate{Max: 5, Window: time.Minute}, cfg.RateLimitForms)
	require.Equal(t, ratelimit.Rate{Max: 60, Window: time.Minute}, cfg.RateLimitCart)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["CURRENCY_CODE"] = "eur"
	env["BUNDLE_TIERS"] = "5:0.2,2:0.05"
	env["MISSING_PRICE_POLICY"] = "strict"
	env["PRICE_CACHE_TTL"] = "30s"
	env["FORMS_ENDPOINT"] = "https://forms.example.com/submit"
	env["RATE_LIMIT_FORMS"] = "off"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "EUR", cfg.CurrencyCode)
	require.Equal(t, pricing.MissingPriceStrict, cfg.MissingPrice)
	require.Equal(t, 30*time.Second, cfg.PriceCacheTTL)
	require.Len(t, cfg.Tiers, 2)
	require.Equal(t, 5, cfg.Tiers[0].MinItems)
	require.True(t, cfg.RateLimitForms.Disabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing base url": {"STOREFRONT_BASE_URL": ""},
		"bad scheme":       {"STOREFRONT_BASE_URL": "ftp://shop"},
		"bad tiers":        {"BUNDLE_TIERS": "3:1.5"},
		"bad policy":       {"MISSING_PRICE_POLICY": "panic"},
		"bad currency":     {"CURRENCY_CODE": "DOLLARS"},
		"bad body limit":   {"BODY_LIMIT_BYTES": "-1"},
		"bad rate":         {"RATE_LIMIT_CART": "fast"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range overrides {
				env[k] = v
			}
			_, err := LoadForTests(env)
			require.Error(t, err)
		})
	}
}

func TestHTTPAddr(t *testing.T) {
	require.Equal(t, ":8080", (&Config{}).HTTPAddr())
	require.Equal(t, ":9000", (&Config{Port: "9000"}).HTTPAddr())
	require.Equal(t, ":9001", (&Config{Port: ":9001"}).HTTPAddr())
}
