package forms

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/storefront-bundle/internal/common"
	"github.com/noah-isme/storefront-bundle/internal/notify"
)

// Handler exposes the form service over HTTP.
type Handler struct {
	Service *Service
}

// Newsletter handles POST /forms/newsletter.
func (h *Handler) Newsletter(w http.ResponseWriter, r *http.Request) {
	var payload NewsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	toast, err := h.Service.Newsletter(r.Context(), common.ShopperKey(r), payload)
	h.respond(w, toast, err)
}

// Contact handles POST /forms/contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var payload ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	toast, err := h.Service.Contact(r.Context(), common.ShopperKey(r), payload)
	h.respond(w, toast, err)
}

func (h *Handler) respond(w http.ResponseWriter, toast notify.Toast, err error) {
	if err == nil {
		common.Data(w, http.StatusOK, map[string]any{"toast": toast})
		return
	}
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", common.ValidationDetails(err))
	case errors.Is(err, ErrBusy):
		common.WriteError(w, common.NewAppError("FORM_BUSY", "submission already in progress", http.StatusConflict, err))
	default:
		common.JSONError(w, http.StatusBadGateway, "FORM_SUBMIT_FAILED", toast.Message, map[string]any{"toast": toast})
	}
}
