package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingPrice is reported under the strict policy when a selected product has no price.
var ErrMissingPrice = errors.New("price missing for product")

// ErrAmountOverflow is returned when a line or bundle total exceeds the Money range.
var ErrAmountOverflow = errors.New("amount out of range")

// Money represents a monetary value stored in minor units.
type Money = int64

// PriceLookup resolves the unit price of a product in minor units.
type PriceLookup interface {
	Price(productID string) (Money, bool)
}

// PriceMap is an in-memory PriceLookup, typically built from rendered page data.
type PriceMap map[string]Money

// Price implements PriceLookup.
func (m PriceMap) Price(productID string) (Money, bool) {
	if m == nil {
		return 0, false
	}
	p, ok := m[productID]
	return p, ok
}

// MissingPricePolicy decides what happens when a selected product has no price.
type MissingPricePolicy int

const (
	// MissingPriceZero prices the product at 0 and keeps going.
	MissingPriceZero MissingPricePolicy = iota
	// MissingPriceStrict reports ErrMissingPrice to the caller.
	MissingPriceStrict
)

func (p MissingPricePolicy) String() string {
	switch p {
	case MissingPriceStrict:
		return "strict"
	default:
		return "zero"
	}
}

// ParseMissingPricePolicy maps a configuration value to a policy.
func ParseMissingPricePolicy(value string) (MissingPricePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "zero":
		return MissingPriceZero, nil
	case "strict", "error":
		return MissingPriceStrict, nil
	default:
		return MissingPriceZero, fmt.Errorf("unknown missing price policy %q", value)
	}
}
