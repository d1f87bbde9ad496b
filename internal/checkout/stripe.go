package checkout

import (
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// LineItem is one priced entry of the checkout session, in minor currency
// units.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// SessionParams carries everything needed to open a hosted payment page.
type SessionParams struct {
	Currency   string
	BuyerEmail string
	SuccessURL string
	CancelURL  string
	LineItems  []LineItem
	Metadata   map[string]string
}

// SessionCreator abstracts the payment provider so the service can be tested
// without network calls.
type SessionCreator interface {
	CreateSession(params SessionParams) (url string, id string, err error)
}

// StripeSessions creates hosted checkout sessions against Stripe. The
// package-level stripe.Key must be set before use.
type StripeSessions struct{}

func (StripeSessions) CreateSession(p SessionParams) (string, string, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		AutomaticPaymentMethods: &stripe.CheckoutSessionAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		CustomerEmail:       stripe.String(p.BuyerEmail),
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(p.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(p.CancelURL),
		LineItems:           items,
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		return "", "", err
	}
	return s.URL, s.ID, nil
}
