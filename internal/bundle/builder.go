package bundle

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

// Renderer receives a fresh summary after every effective selection change.
type Renderer interface {
	Render(pricing.Summary)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(pricing.Summary)

// Render implements Renderer.
func (f RenderFunc) Render(s pricing.Summary) { f(s) }

// Builder translates bundle UI commands into selection mutations and keeps the
// pricing summary current.
type Builder struct {
	engine   *pricing.Engine
	prices   pricing.PriceLookup
	currency string
	renderer Renderer
	logger   zerolog.Logger

	selection *Selection
	summary   pricing.Summary
	err       error
}

// BuilderConfig groups Builder collaborators.
type BuilderConfig struct {
	Engine   *pricing.Engine
	Prices   pricing.PriceLookup
	Currency string
	Renderer Renderer
	Logger   *zerolog.Logger
}

// NewBuilder constructs a Builder over an empty selection and computes the initial summary.
func NewBuilder(cfg BuilderConfig) *Builder {
	b := &Builder{
		engine:   cfg.Engine,
		prices:   cfg.Prices,
		currency: cfg.Currency,
		renderer: cfg.Renderer,
		logger:   zerolog.Nop(),
	}
	if b.engine == nil {
		b.engine = &pricing.Engine{}
	}
	if b.currency == "" {
		b.currency = pricing.DefaultCurrency
	}
	if cfg.Logger != nil {
		b.logger = *cfg.Logger
	}
	b.selection = NewSelection(b.recompute)
	b.recompute()
	return b
}

// OnToggle selects or deselects a product.
func (b *Builder) OnToggle(productID string, selected bool) error {
	if selected {
		return b.selection.Add(productID)
	}
	b.selection.Remove(productID)
	return nil
}

// OnQuantityChange sets the quantity of a selected product.
func (b *Builder) OnQuantityChange(productID string, quantity int) error {
	if err := b.selection.SetQuantity(productID, quantity); err != nil {
		b.logger.Debug().Err(err).Str("product_id", productID).Msg("bundle quantity rejected")
		return err
	}
	return nil
}

// Selection exposes the underlying selection for read access.
func (b *Builder) Selection() *Selection { return b.selection }

// Summary returns the latest pricing summary and any error from computing it.
func (b *Builder) Summary() (pricing.Summary, error) { return b.summary, b.err }

func (b *Builder) recompute() {
	summary, err := b.engine.Summarize(b.selection, b.prices, b.currency)
	b.summary, b.err = summary, err
	if err != nil {
		b.logger.Warn().Err(err).Msg("bundle summary failed")
		return
	}
	if b.renderer != nil {
		b.renderer.Render(summary)
	}
}
