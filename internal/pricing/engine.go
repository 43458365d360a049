package pricing

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-bundle/internal/obs"
)

var engineNopLogger = zerolog.Nop()

// Line is a single selected product and its quantity.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Selection is the read side of a bundle selection consumed by the engine.
type Selection interface {
	Entries() []Line
	TotalItemCount() int
}

// Summary aggregates computed pricing components for a selection.
type Summary struct {
	ItemCount     int      `json:"itemCount"`
	Total         Money    `json:"total"`
	Savings       Money    `json:"savings"`
	Currency      string   `json:"currency"`
	TotalText     string   `json:"totalText"`
	SavingsText   string   `json:"savingsText"`
	MissingPrices []string `json:"missingPrices,omitempty"`
}

// Engine computes bundle totals and tiered savings. The zero value uses the
// default tier table and prices missing products at zero.
type Engine struct {
	Tiers  TierTable
	Policy MissingPricePolicy
	Logger *zerolog.Logger
}

func (e *Engine) tiers() TierTable {
	if e == nil || e.Tiers == nil {
		return DefaultTiers()
	}
	return e.Tiers
}

func (e *Engine) policy() MissingPricePolicy {
	if e == nil {
		return MissingPriceZero
	}
	return e.Policy
}

func (e *Engine) logger() *zerolog.Logger {
	if e == nil || e.Logger == nil {
		return &engineNopLogger
	}
	return e.Logger
}

// ComputeTotal sums unit price times quantity across all lines. Under the zero
// policy a missing price contributes nothing; under the strict policy the first
// missing price aborts the computation with ErrMissingPrice.
func (e *Engine) ComputeTotal(sel Selection, lookup PriceLookup) (Money, error) {
	total, _, err := e.total(sel, lookup)
	return total, err
}

// ComputeSavings applies the tier table to the selection total. The tier is
// chosen by TotalItemCount, and the discount is floored to whole minor units.
func (e *Engine) ComputeSavings(sel Selection, lookup PriceLookup) (Money, error) {
	total, err := e.ComputeTotal(sel, lookup)
	if err != nil {
		return 0, err
	}
	return e.savingsFor(total, itemCount(sel)), nil
}

// Summarize computes total, savings and item count in one pass and renders the
// amounts in the given currency. Products priced at zero for lack of a price
// are listed in MissingPrices; see ReportMissing.
func (e *Engine) Summarize(sel Selection, lookup PriceLookup, currencyCode string) (Summary, error) {
	total, missing, err := e.total(sel, lookup)
	if err != nil {
		return Summary{}, err
	}
	count := itemCount(sel)
	savings := e.savingsFor(total, count)
	if obs.BundleRecomputeTotal != nil {
		obs.BundleRecomputeTotal.Inc()
	}
	return Summary{
		ItemCount:     count,
		Total:         total,
		Savings:       savings,
		Currency:      currencyCode,
		TotalText:     FormatCurrency(total, currencyCode),
		SavingsText:   FormatCurrency(savings, currencyCode),
		MissingPrices: missing,
	}, nil
}

func (e *Engine) total(sel Selection, lookup PriceLookup) (Money, []string, error) {
	if sel == nil {
		return 0, nil, nil
	}
	var (
		total   Money
		missing []string
	)
	for _, line := range sel.Entries() {
		if line.Quantity <= 0 {
			continue
		}
		var (
			price Money
			ok    bool
		)
		if lookup != nil {
			price, ok = lookup.Price(line.ProductID)
		}
		if !ok {
			if e.policy() == MissingPriceStrict {
				return 0, nil, fmt.Errorf("%s: %w", line.ProductID, ErrMissingPrice)
			}
			missing = append(missing, line.ProductID)
			continue
		}
		if price < 0 {
			price = 0
		}
		qty := Money(line.Quantity)
		if price > 0 && qty > math.MaxInt64/price {
			return 0, nil, fmt.Errorf("%s: %d x %d: %w", line.ProductID, price, qty, ErrAmountOverflow)
		}
		amount := price * qty
		if total > math.MaxInt64-amount {
			return 0, nil, fmt.Errorf("bundle total: %w", ErrAmountOverflow)
		}
		total += amount
	}
	return total, missing, nil
}

// ReportMissing logs and counts each product priced at zero for lack of a
// price. Call it once per final summary, not per recompute.
func (e *Engine) ReportMissing(productIDs []string) {
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		e.logger().Warn().Str("product_id", id).Msg("bundle price missing, pricing at zero")
		if obs.BundleMissingPriceTotal != nil {
			obs.BundleMissingPriceTotal.Inc()
		}
	}
}

func (e *Engine) savingsFor(total Money, count int) Money {
	if total <= 0 {
		return 0
	}
	rate := e.tiers().RateFor(count)
	if rate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(total).Mul(rate).Floor().IntPart()
}

func itemCount(sel Selection) int {
	if sel == nil {
		return 0
	}
	return sel.TotalItemCount()
}
