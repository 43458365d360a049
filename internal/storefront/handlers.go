package storefront

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/notify"
)

// Toast messages shown for cart outcomes.
const (
	MsgAdded     = "Item added to cart!"
	MsgAddFailed = "Failed to add item to cart"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// AddItemRequest is the add-to-cart payload.
type AddItemRequest struct {
	VariantID string `json:"variantId" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=999"`
}

// Handler proxies cart actions to the commerce API and raises toasts.
type Handler struct {
	Cart     Cart
	Toasts   *notify.Center
	Validate *validator.Validate
	Logger   *zerolog.Logger
}

func (h *Handler) validate() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return defaultValidator
}

func (h *Handler) log() *zerolog.Logger {
	if h.Logger == nil {
		return &nopLogger
	}
	return h.Logger
}

func (h *Handler) toast(r *http.Request, kind notify.Kind, msg string) *notify.Toast {
	if h.Toasts == nil {
		return nil
	}
	t := h.Toasts.Show(common.ShopperKey(r), kind, msg)
	return &t
}

// AddItem adds a variant to the shopper's cart and returns the added line
// together with the refreshed badge.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", common.ValidationDetails(err))
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	ctx := WithSession(r.Context(), r.Header.Get("Cookie"))
	item, err := h.Cart.AddItem(ctx, payload.VariantID, payload.Quantity)
	if err != nil {
		toast := h.toast(r, notify.KindError, MsgAddFailed)
		status := http.StatusBadGateway
		if errors.Is(err, ErrInvalidVariant) {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, "CART_ADD_FAILED", MsgAddFailed, map[string]any{"toast": toast})
		return
	}

	resp := map[string]any{
		"item":  item,
		"toast": h.toast(r, notify.KindSuccess, MsgAdded),
	}
	// the line is already in the cart; a failed refresh only leaves the badge stale
	if count, err := h.Cart.ItemCount(ctx); err == nil {
		resp["badge"] = BadgeFor(count)
	} else {
		h.log().Warn().Err(err).Msg("badge refresh after add failed")
	}
	common.Data(w, http.StatusOK, resp)
}

// Badge returns the cart-count bubble state for the header.
func (h *Handler) Badge(w http.ResponseWriter, r *http.Request) {
	count, err := h.Cart.ItemCount(WithSession(r.Context(), r.Header.Get("Cookie")))
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "CART_UNAVAILABLE", "cart unavailable", nil)
		return
	}
	common.Data(w, http.StatusOK, BadgeFor(count))
}
