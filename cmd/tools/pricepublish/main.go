package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/catalog"
	"github.com/noah-isme/storefront-bundle/internal/obs"
	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

func main() {
	_ = godotenv.Load()

	file := flag.String("file", os.Getenv("PRICE_DATA_FILE"), "page data JSON with product prices")
	redisURL := flag.String("redis", os.Getenv("REDIS_URL"), "redis connection URL")
	currency := flag.String("currency", "", "override the currency found in the file")
	ttl := flag.Duration("ttl", 0, "snapshot expiry; 0 keeps it until replaced")
	invalidate := flag.Bool("invalidate", false, "drop the snapshot instead of publishing")
	flag.Parse()

	logger := obs.NewLogger("console", "info")
	if err := run(context.Background(), logger, *file, *redisURL, *currency, *ttl, *invalidate); err != nil {
		logger.Fatal().Err(err).Msg("price publish failed")
	}
}

func run(ctx context.Context, logger zerolog.Logger, file, redisURL, currency string, ttl time.Duration, invalidate bool) error {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	snapshot := &catalog.Snapshot{Cache: catalog.NewCache(client, ttl), Logger: &logger}

	if invalidate {
		code := strings.ToUpper(strings.TrimSpace(currency))
		if code == "" {
			code = pricing.DefaultCurrency
		}
		if err := snapshot.Invalidate(ctx, code); err != nil {
			return err
		}
		logger.Info().Str("currency", code).Msg("price snapshot invalidated")
		return nil
	}

	fileCurrency, prices, err := catalog.LoadPageDataFile(file)
	if err != nil {
		return err
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = fileCurrency
	}
	if code == "" {
		code = pricing.DefaultCurrency
	}
	if err := snapshot.Publish(ctx, code, prices); err != nil {
		return err
	}
	logger.Info().Str("currency", code).Int("products", len(prices)).Str("key", catalog.PriceKey(code)).Msg("price snapshot published")
	return nil
}
