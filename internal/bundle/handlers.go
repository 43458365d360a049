package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/pricing"
)

// Event types accepted by the quote endpoint.
const (
	EventToggle   = "toggle"
	EventQuantity = "quantity"
)

// PriceSource resolves the price list for a currency at request time.
type PriceSource interface {
	Prices(ctx context.Context, currency string) (pricing.PriceLookup, error)
}

// Event is a raw storefront input event: a checkbox change or a quantity field change.
type Event struct {
	Type      string      `json:"type" validate:"required,oneof=toggle quantity"`
	ProductID string      `json:"productId" validate:"required,max=128"`
	Selected  *bool       `json:"selected" validate:"required_if=Type toggle"`
	Quantity  json.Number `json:"quantity" validate:"required_if=Type quantity"`
}

// QuoteRequest replays a sequence of events against a fresh selection.
type QuoteRequest struct {
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Events   []Event `json:"events" validate:"max=200,dive"`
}

// Handler exposes the bundle builder over HTTP. Each request owns its own
// selection; nothing is shared between requests.
type Handler struct {
	Engine   *pricing.Engine
	Prices   PriceSource
	Currency string
	Validate *validator.Validate
	Logger   *zerolog.Logger
}

// Quote applies the posted events and returns the resulting bundle summary.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Prices == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "price source not configured", nil)
		return
	}
	var payload QuoteRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", common.ValidationDetails(err))
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(payload.Currency))
	if currency == "" {
		currency = h.currency()
	}
	if !pricing.ValidCurrency(currency) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown currency", nil)
		return
	}

	prices, err := h.Prices.Prices(r.Context(), currency)
	if err != nil {
		h.logger().Error().Err(err).Str("currency", currency).Msg("load bundle prices")
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "prices unavailable", nil)
		return
	}

	builder := NewBuilder(BuilderConfig{
		Engine:   h.Engine,
		Prices:   prices,
		Currency: currency,
		Logger:   h.Logger,
	})
	for i, ev := range payload.Events {
		if err := Apply(builder, ev); err != nil {
			h.writeError(w, fmt.Errorf("event %d: %w", i, err))
			return
		}
	}
	summary, err := builder.Summary()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Engine.ReportMissing(summary.MissingPrices)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"items":   builder.Selection().Entries(),
			"summary": summary,
		},
	})
}

// Tiers returns the active discount tier table.
func (h *Handler) Tiers(w http.ResponseWriter, _ *http.Request) {
	tiers := pricing.DefaultTiers()
	if h.Engine != nil && h.Engine.Tiers != nil {
		tiers = h.Engine.Tiers
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tiers})
}

// Apply dispatches a raw event to the matching builder command.
func Apply(b *Builder, ev Event) error {
	switch ev.Type {
	case EventToggle:
		selected := ev.Selected != nil && *ev.Selected
		return b.OnToggle(ev.ProductID, selected)
	case EventQuantity:
		qty, err := ParseQuantity(ev.Quantity.String())
		if err != nil {
			return err
		}
		return b.OnQuantityChange(ev.ProductID, qty)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
	case errors.Is(err, ErrInvalidProduct):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, pricing.ErrMissingPrice):
		common.JSONError(w, http.StatusUnprocessableEntity, "MISSING_PRICE", err.Error(), nil)
	case errors.Is(err, pricing.ErrAmountOverflow):
		common.JSONError(w, http.StatusUnprocessableEntity, "AMOUNT_OUT_OF_RANGE", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	}
}

func (h *Handler) validate() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return defaultValidator
}

func (h *Handler) currency() string {
	if c := strings.TrimSpace(h.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return pricing.DefaultCurrency
}

func (h *Handler) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())
