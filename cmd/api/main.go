package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/bundle"
	"github.com/noah-isme/storefront-bundle/internal/catalog"
	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/config"
	"github.com/noah-isme/storefront-bundle/internal/forms"
	"github.com/noah-isme/storefront-bundle/internal/health"
	"github.com/noah-isme/storefront-bundle/internal/lock"
	"github.com/noah-isme/storefront-bundle/internal/notify"
	"github.com/noah-isme/storefront-bundle/internal/obs"
	"github.com/noah-isme/storefront-bundle/internal/pricing"
	"github.com/noah-isme/storefront-bundle/internal/ratelimit"
	"github.com/noah-isme/storefront-bundle/internal/resilience"
	"github.com/noah-isme/storefront-bundle/internal/storefront"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	if err := resilience.RegisterMetrics(nil); err != nil {
		logger.Error().Err(err).Msg("register breaker metrics")
	}

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "storefront-bundle",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.TracingSampleRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisClient := openRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	fallback := map[string]pricing.PriceMap{}
	if cfg.PriceDataFile != "" {
		currency, prices, err := catalog.LoadPageDataFile(cfg.PriceDataFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.PriceDataFile).Msg("load price data")
		}
		if currency == "" {
			currency = cfg.CurrencyCode
		}
		fallback[currency] = prices
		logger.Info().Str("currency", currency).Int("products", len(prices)).Msg("price data loaded")
	}
	prices := &catalog.Snapshot{
		Cache:    catalog.NewCache(redisClient, cfg.PriceCacheTTL),
		Fallback: fallback,
		Logger:   obs.Component(logger, "catalog"),
	}

	engine := &pricing.Engine{
		Tiers:  cfg.Tiers,
		Policy: cfg.MissingPrice,
		Logger: obs.Component(logger, "pricing"),
	}
	toasts := notify.NewCenter(obs.Component(logger, "notify"))

	cartClient := &storefront.Client{
		HTTP:    resilience.NewHTTPClient("cart", cfg.HTTPClientTimeout),
		BaseURL: cfg.StorefrontBaseURL,
		Logger:  obs.Component(logger, "storefront"),
	}

	var submitter forms.Submitter = forms.LogSubmitter{Logger: obs.Component(logger, "forms")}
	if cfg.FormsEndpoint != "" {
		submitter = forms.HTTPSubmitter{
			HTTP:     resilience.NewHTTPClient("forms", cfg.HTTPClientTimeout),
			Endpoint: cfg.FormsEndpoint,
		}
	}

	probes := []health.Probe{{Name: "prices", Check: func(ctx context.Context) error {
		_, err := prices.Prices(ctx, cfg.CurrencyCode)
		return err
	}}}
	if redisClient != nil {
		probes = append(probes, health.Probe{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	healthHandler := &health.Handler{Probes: probes}

	var limiter ratelimit.Limiter = ratelimit.NewMemory("ratelimit")
	var formLock forms.Locker
	if redisClient != nil {
		limiter = ratelimit.Sliding{Client: redisClient, Prefix: "ratelimit:"}
		formLock = lock.Locker{R: redisClient, Prefix: "lock:"}
	}
	limitErr := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }

	var httpMetrics *obs.HTTPMetrics
	var gatherer prometheus.Gatherer
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS), nil)
		gatherer = prometheus.DefaultGatherer
	}

	handler := newRouter(routerDeps{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		BodyLimit:      cfg.BodyLimitBytes,
		Tracing:        tracingEnabled,
		HTTPMetrics:    httpMetrics,
		Gatherer:       gatherer,
		Bundle: &bundle.Handler{
			Engine:   engine,
			Prices:   prices,
			Currency: cfg.CurrencyCode,
			Logger:   obs.Component(logger, "bundle"),
		},
		Cart: &storefront.Handler{
			Cart:   cartClient,
			Toasts: toasts,
			Logger: obs.Component(logger, "cart"),
		},
		Forms: &forms.Handler{Service: &forms.Service{
			Submitter: submitter,
			Toasts:    toasts,
			Logger:    obs.Component(logger, "forms"),
			Lock:      formLock,
		}},
		Toasts:     toasts,
		Health:     healthHandler,
		Idempotent: common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL},
		FormsLimit: ratelimit.Handler{Limiter: limiter, Rate: cfg.RateLimitForms, OnError: limitErr},
		CartLimit:  ratelimit.Handler{Limiter: limiter, Rate: cfg.RateLimitCart, OnError: limitErr},
	})

	go pruneToasts(ctx, toasts)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		healthHandler.SetDraining(true)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("currency", cfg.CurrencyCode).Str("tiers", cfg.Tiers.String()).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

// openRedis returns nil when REDIS_URL is unset; prices then come from the
// data file alone and idempotency keys are not enforced.
func openRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, running without price cache and idempotency")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error().Err(err).Msg("ping redis")
	}
	return client
}

func pruneToasts(ctx context.Context, center *notify.Center) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			center.Prune(now)
		}
	}
}
