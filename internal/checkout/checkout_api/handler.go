package checkout_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-boxoffice/internal/checkout"
	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"
)

type Handler struct {
	Checkout *checkout.Service
	Stripe   config.StripeConfig
	Logger   *logger.Logger
}

// CreateCheckoutSession serves POST /api/boxoffice/checkout-session.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if h.Stripe.SecretKey == "" {
		h.Logger.Error("CHECKOUT", "STRIPE_SECRET_KEY is not configured")
		utils.WriteError(w, http.StatusInternalServerError, "Missing STRIPE_SECRET_KEY")
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Checkout.CreateSession(req)
	if err != nil {
		var validationErr *checkout.ValidationError
		var notFoundErr *checkout.NotFoundError
		switch {
		case errors.As(err, &validationErr):
			utils.WriteError(w, http.StatusBadRequest, validationErr.Msg)
		case errors.As(err, &notFoundErr):
			utils.WriteError(w, http.StatusNotFound, notFoundErr.Msg)
		default:
			h.Logger.Error("CHECKOUT", fmt.Sprintf("CreateCheckoutSession: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}
