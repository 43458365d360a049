package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

// ErrInvalidPageData is returned when embedded price data cannot be decoded.
var ErrInvalidPageData = errors.New("invalid page price data")

// PageData is the product price list rendered into a bundle page.
type PageData struct {
	Currency string        `json:"currency"`
	Products []PageProduct `json:"products"`
}

// PageProduct is one bundle product card. Price is in minor units and may be
// rendered either as a JSON number or as a data-attribute string.
type PageProduct struct {
	ProductID string     `json:"productId"`
	Price     PriceValue `json:"price"`
}

// PriceValue decodes a minor-unit price from a number or numeric string.
// Values that do not parse as an integer are left unset.
type PriceValue struct {
	Amount pricing.Money
	Valid  bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PriceValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*p = PriceValue{}
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*p = PriceValue{}
		return nil
	}
	*p = PriceValue{Amount: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p PriceValue) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(p.Amount, 10)), nil
}

// ParsePageData decodes page data and returns its currency and price map.
// Products without a usable price are left out of the map so the pricing
// engine's missing-price policy applies to them.
func ParsePageData(r io.Reader) (string, pricing.PriceMap, error) {
	var data PageData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidPageData, err)
	}
	prices := make(pricing.PriceMap, len(data.Products))
	for _, p := range data.Products {
		id := strings.TrimSpace(p.ProductID)
		if id == "" {
			return "", nil, fmt.Errorf("%w: product without id", ErrInvalidPageData)
		}
		if !p.Price.Valid {
			continue
		}
		prices[id] = p.Price.Amount
	}
	currency := strings.ToUpper(strings.TrimSpace(data.Currency))
	if currency == "" {
		currency = pricing.DefaultCurrency
	}
	return currency, prices, nil
}

// LoadPageDataFile reads page data from path.
func LoadPageDataFile(path string) (string, pricing.PriceMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open price data: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParsePageData(f)
}
