package checkout

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"ms-boxoffice/internal/config"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/metrics"
	"ms-boxoffice/internal/models"
)

type DBLayer interface {
	GetEventByID(id string) (*models.Event, error)
	GetTicketTypesByEvent(eventID string) ([]models.TicketType, error)
}

type Service struct {
	DB       DBLayer
	Sessions SessionCreator
	Config   config.CheckoutConfig
	Logger   *logger.Logger
}

func NewService(db DBLayer, sessions SessionCreator, cfg config.CheckoutConfig, log *logger.Logger) *Service {
	return &Service{DB: db, Sessions: sessions, Config: cfg, Logger: log}
}

// toMinorUnits converts a price in major currency units to integer minor
// units, rounding half-up and flooring at zero.
func toMinorUnits(price float64) int64 {
	cents := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if cents < 0 {
		return 0
	}
	return cents
}

// CreateSession validates the requested cart against current stock and opens
// a hosted payment session. No store writes happen here: sales are
// materialized only after the payment provider confirms payment.
func (s *Service) CreateSession(req models.CheckoutRequest) (*models.CheckoutSessionResponse, error) {
	if req.EventID == "" || req.BuyerEmail == "" || req.SuccessURL == "" || req.CancelURL == "" {
		metrics.CheckoutRejections.WithLabelValues("missing_fields").Inc()
		return nil, &ValidationError{Msg: "Missing required fields"}
	}

	cart := models.Cart{
		EventID:           req.EventID,
		SelectedTickets:   req.SelectedTickets,
		IncludeTransport:  req.IncludeTransport,
		BuyerEmail:        req.BuyerEmail,
		DemographicAge:    req.DemographicAge,
		DemographicGender: req.DemographicGender,
		GeographyCity:     req.GeographyCity,
	}

	ticketQty := cart.TotalQuantity()
	if ticketQty <= 0 {
		metrics.CheckoutRejections.WithLabelValues("empty_cart").Inc()
		return nil, &ValidationError{Msg: "No tickets selected"}
	}

	event, err := s.DB.GetEventByID(req.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.CheckoutRejections.WithLabelValues("event_not_found").Inc()
			return nil, &NotFoundError{Msg: "Event not found"}
		}
		return nil, fmt.Errorf("fetch event %s: %w", req.EventID, err)
	}

	types, err := s.DB.GetTicketTypesByEvent(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("fetch ticket types for event %s: %w", req.EventID, err)
	}
	typesByID := make(map[string]models.TicketType, len(types))
	for _, t := range types {
		typesByID[t.ID] = t
	}

	// Deterministic iteration keeps line item order, and therefore the
	// buyer-facing payment page, stable across retries.
	ids := make([]string, 0, len(req.SelectedTickets))
	for id := range req.SelectedTickets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var lineItems []LineItem
	for _, id := range ids {
		qty := req.SelectedTickets[id]
		if qty <= 0 {
			continue
		}

		t, ok := typesByID[id]
		if !ok {
			metrics.CheckoutRejections.WithLabelValues("invalid_ticket_type").Inc()
			return nil, &ValidationError{Msg: fmt.Sprintf("Invalid ticket type: %s", id)}
		}

		// Advisory only: stock is not reserved here, so concurrent
		// checkouts can still race to the fulfillment-time guard.
		if qty > t.Remaining() {
			metrics.CheckoutRejections.WithLabelValues("insufficient_stock").Inc()
			return nil, &ValidationError{Msg: fmt.Sprintf("Not enough stock for %s", t.Name)}
		}

		lineItems = append(lineItems, LineItem{
			Name:        fmt.Sprintf("%s - %s", t.Name, event.Title),
			Description: t.Description,
			UnitAmount:  toMinorUnits(t.Price),
			Quantity:    int64(qty),
		})
	}

	if req.IncludeTransport {
		lineItems = append(lineItems, LineItem{
			Name:       fmt.Sprintf("Transport - %s", event.Title),
			UnitAmount: toMinorUnits(s.Config.TransportUnitPrice),
			Quantity:   int64(ticketQty),
		})
	}

	url, id, err := s.Sessions.CreateSession(SessionParams{
		Currency:   s.Config.Currency,
		BuyerEmail: req.BuyerEmail,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		LineItems:  lineItems,
		Metadata:   cart.Metadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment session: %w", err)
	}

	metrics.CheckoutSessionsCreated.Inc()
	s.Logger.Info("CHECKOUT", fmt.Sprintf("Created session %s for event %s (%d tickets)", id, event.ID, ticketQty))

	return &models.CheckoutSessionResponse{URL: url, ID: id}, nil
}
