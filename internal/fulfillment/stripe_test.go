package fulfillment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-boxoffice/internal/fulfillment"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe does: an HMAC
// SHA-256 of "<timestamp>.<payload>" keyed with the endpoint secret.
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func completedEventPayload() []byte {
	return []byte(`{
		"id": "evt_test_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_1", "metadata": {"eventId": "event1"}}}
	}`)
}

func TestVerifyEventValidSignature(t *testing.T) {
	payload := completedEventPayload()
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, whErr := fulfillment.VerifyEvent(payload, header, testWebhookSecret)

	assert.Nil(t, whErr)
	assert.Equal(t, fulfillment.CheckoutSessionCompleted, string(event.Type))
}

func TestVerifyEventTamperedPayload(t *testing.T) {
	payload := completedEventPayload()
	header := signPayload(payload, testWebhookSecret, time.Now())

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '

	_, whErr := fulfillment.VerifyEvent(tampered, header, testWebhookSecret)

	assert.NotNil(t, whErr)
	assert.Equal(t, "validation", whErr.Category)
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
	assert.Equal(t, "Invalid signature", whErr.PublicError)
}

func TestVerifyEventWrongSecret(t *testing.T) {
	payload := completedEventPayload()
	header := signPayload(payload, "whsec_other_secret", time.Now())

	_, whErr := fulfillment.VerifyEvent(payload, header, testWebhookSecret)

	assert.NotNil(t, whErr)
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
}

func TestVerifyEventStaleTimestamp(t *testing.T) {
	payload := completedEventPayload()
	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	_, whErr := fulfillment.VerifyEvent(payload, header, testWebhookSecret)

	assert.NotNil(t, whErr)
	assert.Equal(t, "validation", whErr.Category)
}

func TestVerifyEventMissingHeader(t *testing.T) {
	_, whErr := fulfillment.VerifyEvent(completedEventPayload(), "", testWebhookSecret)

	assert.NotNil(t, whErr)
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
	assert.Equal(t, "Missing stripe-signature", whErr.PublicError)
}

func TestVerifyEventMissingSecret(t *testing.T) {
	payload := completedEventPayload()
	header := signPayload(payload, testWebhookSecret, time.Now())

	_, whErr := fulfillment.VerifyEvent(payload, header, "")

	assert.NotNil(t, whErr)
	assert.Equal(t, "configuration", whErr.Category)
	assert.Equal(t, http.StatusInternalServerError, whErr.StatusCode)
}
