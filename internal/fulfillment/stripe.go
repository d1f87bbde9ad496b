package fulfillment

import (
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// CheckoutSessionCompleted is the only event type that triggers fulfillment.
const CheckoutSessionCompleted = "checkout.session.completed"

// WebhookError carries both the client-safe and the log-only view of a
// webhook processing failure.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

// VerifyEvent authenticates a raw webhook payload against its signature
// header. It fails closed: any verification problem rejects the delivery
// before fulfillment can run.
func VerifyEvent(payload []byte, sigHeader, webhookSecret string) (stripe.Event, *WebhookError) {
	if webhookSecret == "" {
		return stripe.Event{}, &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Missing Stripe secrets",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	if sigHeader == "" {
		return stripe.Event{}, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Missing stripe-signature",
			InternalError: "Request carries no Stripe-Signature header",
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, webhookSecret, opts)
	if err != nil {
		return stripe.Event{}, &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid signature",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	return event, nil
}
