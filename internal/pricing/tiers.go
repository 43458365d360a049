package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidTier is returned when a tier definition cannot be parsed.
var ErrInvalidTier = errors.New("invalid discount tier")

// Tier is a discount bracket keyed on the total number of selected units.
// Two units of the same product count as two, not one.
type Tier struct {
	MinItems int             `json:"minItems"`
	Rate     decimal.Decimal `json:"rate"`
}

// TierTable is ordered by MinItems descending; the first matching tier wins.
type TierTable []Tier

// DefaultTiers returns the storefront bundle policy: 15% off 3+ units, 10% off 2.
func DefaultTiers() TierTable {
	return TierTable{
		{MinItems: 3, Rate: decimal.RequireFromString("0.15")},
		{MinItems: 2, Rate: decimal.RequireFromString("0.10")},
	}
}

// NewTierTable validates and sorts the provided tiers.
func NewTierTable(tiers ...Tier) (TierTable, error) {
	seen := make(map[int]struct{}, len(tiers))
	out := make(TierTable, 0, len(tiers))
	for _, t := range tiers {
		if t.MinItems <= 0 {
			return nil, fmt.Errorf("min items must be positive: %w", ErrInvalidTier)
		}
		if t.Rate.IsNegative() || t.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("rate %s out of range: %w", t.Rate, ErrInvalidTier)
		}
		if _, dup := seen[t.MinItems]; dup {
			return nil, fmt.Errorf("duplicate tier for %d items: %w", t.MinItems, ErrInvalidTier)
		}
		seen[t.MinItems] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinItems > out[j].MinItems })
	return out, nil
}

// ParseTiers reads a comma-separated list of "minItems:rate" pairs,
// e.g. "3:0.15,2:0.10". An empty string yields the default table.
func ParseTiers(value string) (TierTable, error) {
	if strings.TrimSpace(value) == "" {
		return DefaultTiers(), nil
	}
	parts := strings.Split(value, ",")
	tiers := make([]Tier, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		minRaw, rateRaw, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("tier %q: %w", part, ErrInvalidTier)
		}
		minItems, err := strconv.Atoi(strings.TrimSpace(minRaw))
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", part, ErrInvalidTier)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rateRaw))
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", part, ErrInvalidTier)
		}
		tiers = append(tiers, Tier{MinItems: minItems, Rate: rate})
	}
	return NewTierTable(tiers...)
}

// RateFor returns the discount rate applicable to itemCount units.
func (t TierTable) RateFor(itemCount int) decimal.Decimal {
	for _, tier := range t {
		if itemCount >= tier.MinItems {
			return tier.Rate
		}
	}
	return decimal.Zero
}

// String renders the table in the same form accepted by ParseTiers.
func (t TierTable) String() string {
	parts := make([]string, 0, len(t))
	for _, tier := range t {
		parts = append(parts, strconv.Itoa(tier.MinItems)+":"+tier.Rate.String())
	}
	return strings.Join(parts, ",")
}
