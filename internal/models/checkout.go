package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CartVersion tags the metadata encoding so a future layout change can be
// detected instead of silently misread.
const CartVersion = "1"

type CheckoutRequest struct {
	EventID           string         `json:"eventId"`
	SelectedTickets   map[string]int `json:"selectedTickets"`
	IncludeTransport  bool           `json:"includeTransport"`
	BuyerEmail        string         `json:"buyerEmail"`
	DemographicAge    int            `json:"demographicAge"`
	DemographicGender string         `json:"demographicGender"`
	GeographyCity     string         `json:"geographyCity"`
	SuccessURL        string         `json:"successUrl"`
	CancelURL         string         `json:"cancelUrl"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// Cart is the buyer's intent carried through the payment session metadata.
// The encoding must round-trip losslessly: the webhook stage has no other
// channel back to the requested quantities.
type Cart struct {
	EventID           string
	SelectedTickets   map[string]int
	IncludeTransport  bool
	BuyerEmail        string
	DemographicAge    int
	DemographicGender string
	GeographyCity     string
}

// TotalQuantity sums the requested units across all ticket types.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, qty := range c.SelectedTickets {
		total += qty
	}
	return total
}

// Metadata serializes the cart into the flat string map Stripe stores on a
// checkout session.
func (c Cart) Metadata() map[string]string {
	selected, _ := json.Marshal(c.SelectedTickets)
	transport := "0"
	if c.IncludeTransport {
		transport = "1"
	}
	return map[string]string{
		"cartVersion":       CartVersion,
		"eventId":           c.EventID,
		"selectedTickets":   string(selected),
		"includeTransport":  transport,
		"buyerEmail":        c.BuyerEmail,
		"demographicAge":    strconv.Itoa(c.DemographicAge),
		"demographicGender": c.DemographicGender,
		"geographyCity":     c.GeographyCity,
	}
}

// CartFromMetadata reconstructs a Cart from session metadata. A missing
// selectedTickets key decodes as an empty cart; malformed values are an
// error so the webhook stage can reject them instead of crashing mid-decode.
func CartFromMetadata(md map[string]string) (*Cart, error) {
	if md == nil {
		md = map[string]string{}
	}

	if v, ok := md["cartVersion"]; ok && v != CartVersion {
		return nil, fmt.Errorf("unsupported cart version %q", v)
	}

	selected := map[string]int{}
	if raw, ok := md["selectedTickets"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &selected); err != nil {
			return nil, fmt.Errorf("malformed selectedTickets metadata: %w", err)
		}
	}

	age := 0
	if raw, ok := md["demographicAge"]; ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed demographicAge metadata: %w", err)
		}
		age = parsed
	}

	gender := md["demographicGender"]
	if gender == "" {
		gender = "other"
	}

	return &Cart{
		EventID:           md["eventId"],
		SelectedTickets:   selected,
		IncludeTransport:  md["includeTransport"] == "1",
		BuyerEmail:        md["buyerEmail"],
		DemographicAge:    age,
		DemographicGender: gender,
		GeographyCity:     md["geographyCity"],
	}, nil
}
