package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

var snapshotNopLogger = zerolog.Nop()

// PriceKey returns the cache key holding the price snapshot for currency.
func PriceKey(currency string) string {
	return "prices:" + strings.ToUpper(strings.TrimSpace(currency))
}

// Snapshot serves per-currency price lists from Redis, falling back to the
// price data loaded at startup.
type Snapshot struct {
	Cache    *Cache
	Fallback map[string]pricing.PriceMap
	Logger   *zerolog.Logger
}

// Prices implements bundle.PriceSource.
func (s *Snapshot) Prices(ctx context.Context, currency string) (pricing.PriceLookup, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	fallback, hasFallback := s.fallback(currency)

	var cached pricing.PriceMap
	found, err := s.cache().GetJSON(ctx, PriceKey(currency), &cached)
	if err != nil {
		if !hasFallback {
			return nil, fmt.Errorf("load price snapshot %s: %w", currency, err)
		}
		s.logger().Warn().Err(err).Str("currency", currency).Msg("price cache unavailable, serving fallback")
		return fallback, nil
	}
	if found {
		return cached, nil
	}
	if !hasFallback {
		return pricing.PriceMap{}, nil
	}
	if err := s.cache().SetJSON(ctx, PriceKey(currency), fallback); err != nil {
		s.logger().Warn().Err(err).Str("currency", currency).Msg("warm price cache")
	}
	return fallback, nil
}

// Publish replaces the cached snapshot for currency.
func (s *Snapshot) Publish(ctx context.Context, currency string, prices pricing.PriceMap) error {
	if prices == nil {
		prices = pricing.PriceMap{}
	}
	if err := s.cache().SetJSON(ctx, PriceKey(currency), prices); err != nil {
		return fmt.Errorf("publish price snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot for currency.
func (s *Snapshot) Invalidate(ctx context.Context, currency string) error {
	return s.cache().Delete(ctx, PriceKey(currency))
}

func (s *Snapshot) fallback(currency string) (pricing.PriceMap, bool) {
	if s == nil || s.Fallback == nil {
		return nil, false
	}
	prices, ok := s.Fallback[currency]
	return prices, ok
}

func (s *Snapshot) cache() *Cache {
	if s == nil {
		return nil
	}
	return s.Cache
}

func (s *Snapshot) logger() *zerolog.Logger {
	if s == nil || s.Logger == nil {
		return &snapshotNopLogger
	}
	return s.Logger
}
