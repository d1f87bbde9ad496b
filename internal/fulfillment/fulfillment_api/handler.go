package fulfillment_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"

	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/fulfillment"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/metrics"
	"ms-boxoffice/internal/utils"
)

type Handler struct {
	Fulfillment *fulfillment.Service
	Stripe      config.StripeConfig
	Logger      *logger.Logger
}

// HandleStripeWebhook serves POST /api/boxoffice/stripe/webhook. Anyone can
// reach this endpoint, so nothing runs before signature verification.
func (h *Handler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.Stripe.SecretKey == "" || h.Stripe.WebhookSecret == "" {
		h.Logger.Error("WEBHOOK", "Stripe secrets are not configured")
		metrics.WebhookEvents.WithLabelValues("config_error").Inc()
		utils.WriteError(w, http.StatusInternalServerError, "Missing Stripe secrets")
		return
	}

	// The exact bytes as sent: signature verification runs over the raw
	// payload, before any JSON decoding.
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to read webhook payload: %v", err))
		metrics.WebhookEvents.WithLabelValues("invalid").Inc()
		utils.WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	event, whErr := fulfillment.VerifyEvent(payload, r.Header.Get("Stripe-Signature"), h.Stripe.WebhookSecret)
	if whErr != nil {
		h.Logger.Error("WEBHOOK", whErr.InternalError)
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		utils.WriteError(w, whErr.StatusCode, whErr.PublicError)
		return
	}

	// Unhandled event types are acknowledged, not rejected: the provider
	// retries on non-2xx.
	if string(event.Type) != fulfillment.CheckoutSessionCompleted {
		h.Logger.Info("WEBHOOK", fmt.Sprintf("Ignoring event type %s", event.Type))
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"received": true,
			"ignored":  true,
			"type":     string(event.Type),
		})
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal checkout session: %v", err))
		metrics.WebhookEvents.WithLabelValues("invalid").Inc()
		utils.WriteError(w, http.StatusBadRequest, "Invalid event data")
		return
	}

	result, err := h.Fulfillment.FulfillSession(session.ID, session.Metadata)
	if err != nil {
		var validationErr *fulfillment.ValidationError
		if errors.As(err, &validationErr) {
			h.Logger.Error("WEBHOOK", fmt.Sprintf("Rejected session %s: %s", session.ID, validationErr.Msg))
			metrics.WebhookEvents.WithLabelValues("invalid").Inc()
			utils.WriteError(w, http.StatusBadRequest, validationErr.Msg)
			return
		}
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Fulfillment failed for session %s: %v", session.ID, err))
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if !result.Duplicate {
		metrics.WebhookEvents.WithLabelValues("fulfilled").Inc()
	}
	resp := map[string]interface{}{
		"received":   true,
		"ok":         true,
		"salesCount": result.SalesCount,
	}
	if result.Duplicate {
		resp["duplicate"] = true
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
