package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/bundle"
	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/forms"
	"github.com/noah-isme/storefront-bundle/internal/health"
	"github.com/noah-isme/storefront-bundle/internal/notify"
	"github.com/noah-isme/storefront-bundle/internal/obs"
	"github.com/noah-isme/storefront-bundle/internal/ratelimit"
	"github.com/noah-isme/storefront-bundle/internal/security"
	"github.com/noah-isme/storefront-bundle/internal/storefront"
)

type routerDeps struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	BodyLimit      int64
	Tracing        bool
	HTTPMetrics    *obs.HTTPMetrics
	Gatherer       prometheus.Gatherer

	Bundle     *bundle.Handler
	Cart       *storefront.Handler
	Forms      *forms.Handler
	Toasts     *notify.Center
	Health     *health.Handler
	Idempotent common.Idem
	FormsLimit ratelimit.Handler
	CartLimit  ratelimit.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(d.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", common.IdempotencyHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.Health != nil {
		r.Get("/health/live", d.Health.Live)
		r.Get("/health/ready", d.Health.Ready)
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.Headers{NoStore: true, HSTSMaxAge: 31536000}.Middleware)
		v.Use(security.BodyLimit{Max: d.BodyLimit}.Middleware)

		v.Route("/bundle", func(b chi.Router) {
			b.Post("/quote", d.Bundle.Quote)
			b.Get("/tiers", d.Bundle.Tiers)
		})
		v.Route("/cart", func(c chi.Router) {
			c.Get("/badge", d.Cart.Badge)
			c.With(d.CartLimit.Middleware, d.Idempotent.Middleware).Post("/items", d.Cart.AddItem)
		})
		v.Route("/forms", func(f chi.Router) {
			f.Use(d.FormsLimit.Middleware)
			f.Use(d.Idempotent.Middleware)
			f.Post("/newsletter", d.Forms.Newsletter)
			f.Post("/contact", d.Forms.Contact)
		})
		if d.Toasts != nil {
			v.Get("/notifications", d.Toasts.List)
		}
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
