package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BundleRecomputeTotal counts bundle summary recomputations.
	BundleRecomputeTotal prometheus.Counter
	// BundleMissingPriceTotal counts selected bundle lines priced at zero for lack of a price.
	BundleMissingPriceTotal prometheus.Counter
	// CartAddTotal counts add-to-cart calls against the commerce API by outcome.
	CartAddTotal *prometheus.CounterVec
	// CartCountTotal counts cart item-count lookups by outcome.
	CartCountTotal *prometheus.CounterVec
	// FormSubmissionsTotal counts storefront form submissions by form and outcome.
	FormSubmissionsTotal *prometheus.CounterVec
	// NotificationsTotal counts toast notifications shown by kind.
	NotificationsTotal *prometheus.CounterVec
	// OutboundLatency records commerce API call latency in milliseconds.
	OutboundLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BundleRecomputeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_recompute_total",
			Help:      "Number of bundle summary recomputations.",
		})
		BundleMissingPriceTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_missing_price_total",
			Help:      "Number of selected bundle lines without a known unit price.",
		})
		CartAddTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_add_total",
			Help:      "Count of add-to-cart outcomes.",
		}, []string{"result"})
		CartCountTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_count_total",
			Help:      "Count of cart item-count lookups by outcome.",
		}, []string{"result"})
		FormSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Count of storefront form submissions by outcome.",
		}, []string{"form", "result"})
		NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of toast notifications shown by kind.",
		}, []string{"kind"})
		OutboundLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbound_request_duration_ms",
			Help:      "Latency of commerce API calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"target", "result"})

		mustRegisterCollector(reg, BundleRecomputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BundleRecomputeTotal = v
			}
		})
		mustRegisterCollector(reg, BundleMissingPriceTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				BundleMissingPriceTotal = v
			}
		})
		mustRegisterCollector(reg, CartAddTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartAddTotal = v
			}
		})
		mustRegisterCollector(reg, CartCountTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartCountTotal = v
			}
		})
		mustRegisterCollector(reg, FormSubmissionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				FormSubmissionsTotal = v
			}
		})
		mustRegisterCollector(reg, NotificationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotificationsTotal = v
			}
		})
		mustRegisterCollector(reg, OutboundLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				OutboundLatency = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
