package fulfillment

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"ms-boxoffice/internal/kafka"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/metrics"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/qr"
)

// ValidationError rejects a delivery whose metadata cannot drive
// fulfillment. Signals a 400 with no sales created.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

type DBLayer interface {
	GetEventByID(id string) (*models.Event, error)
	GetTicketTypesByEvent(eventID string) ([]models.TicketType, error)
	SalesBySession(sessionID string) ([]models.Sale, error)
	FulfillSession(sessionID string, items []models.FulfillmentPlanItem) (*models.FulfillmentOutcome, error)
}

type SessionLocker interface {
	AcquireSessionLock(sessionID string) (bool, error)
	ReleaseSessionLock(sessionID string) error
}

type ConfirmationSender interface {
	SendConfirmation(to, eventTitle string, codes []string, sessionID string) error
}

type EventPublisher interface {
	PublishSalesFulfilled(topic string, evt kafka.SalesFulfilledEvent) error
}

type Service struct {
	DB       DBLayer
	Lock     SessionLocker
	Mailer   ConfirmationSender
	Producer EventPublisher
	Topic    string
	Logger   *logger.Logger
}

func NewService(db DBLayer, lock SessionLocker, mailer ConfirmationSender, producer EventPublisher, topic string, log *logger.Logger) *Service {
	return &Service{DB: db, Lock: lock, Mailer: mailer, Producer: producer, Topic: topic, Logger: log}
}

// Result is the acknowledgment payload for one processed delivery.
type Result struct {
	SalesCount int
	Duplicate  bool
	Conflicts  []string
}

// FulfillSession turns a confirmed payment session into sale rows, advances
// the sold counters, and notifies the buyer. Safe to re-invoke for the same
// session: duplicates short-circuit without writes.
func (s *Service) FulfillSession(sessionID string, metadata map[string]string) (*Result, error) {
	started := time.Now()

	cart, err := models.CartFromMetadata(metadata)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("Malformed metadata: %v", err)}
	}
	if cart.EventID == "" || cart.BuyerEmail == "" {
		return nil, &ValidationError{Msg: "Missing metadata"}
	}

	// Cheap short-circuit before any lock or transaction.
	existing, err := s.DB.SalesBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("check existing sales for session %s: %w", sessionID, err)
	}
	if len(existing) > 0 {
		s.Logger.Warn("FULFILL", fmt.Sprintf("Session %s already fulfilled (%d sales), skipping", sessionID, len(existing)))
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		return &Result{SalesCount: len(existing), Duplicate: true}, nil
	}

	if s.Lock != nil {
		acquired, err := s.Lock.AcquireSessionLock(sessionID)
		if err != nil {
			// The transaction below is the real guard; losing the lock
			// service only costs duplicate work on provider retries.
			s.Logger.Warn("FULFILL", fmt.Sprintf("Session lock unavailable for %s: %v", sessionID, err))
		} else if !acquired {
			s.Logger.Warn("FULFILL", fmt.Sprintf("Session %s is being fulfilled by a concurrent delivery", sessionID))
			metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
			return &Result{SalesCount: 0, Duplicate: true}, nil
		} else {
			defer func() {
				if err := s.Lock.ReleaseSessionLock(sessionID); err != nil {
					s.Logger.Warn("FULFILL", fmt.Sprintf("Failed to release session lock %s: %v", sessionID, err))
				}
			}()
		}
	}

	// Prices and names come from the current rows, never from metadata.
	event, err := s.DB.GetEventByID(cart.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ValidationError{Msg: fmt.Sprintf("Unknown event: %s", cart.EventID)}
		}
		return nil, fmt.Errorf("fetch event %s: %w", cart.EventID, err)
	}

	types, err := s.DB.GetTicketTypesByEvent(cart.EventID)
	if err != nil {
		return nil, fmt.Errorf("fetch ticket types for event %s: %w", cart.EventID, err)
	}
	typesByID := make(map[string]models.TicketType, len(types))
	for _, t := range types {
		typesByID[t.ID] = t
	}

	items := s.buildPlan(sessionID, *cart, typesByID)

	outcome, err := s.DB.FulfillSession(sessionID, items)
	if err != nil {
		return nil, fmt.Errorf("fulfill session %s: %w", sessionID, err)
	}
	if outcome.AlreadyFulfilled {
		s.Logger.Warn("FULFILL", fmt.Sprintf("Session %s fulfilled concurrently (%d sales)", sessionID, outcome.ExistingCount))
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		return &Result{SalesCount: outcome.ExistingCount, Duplicate: true}, nil
	}

	for _, name := range outcome.StockConflicts {
		metrics.StockConflicts.Inc()
		s.Logger.Error("FULFILL", fmt.Sprintf("Stock exhausted for %q on session %s; paid units not issued, needs support follow-up", name, sessionID))
	}

	metrics.SalesCreated.Add(float64(len(outcome.Created)))
	metrics.FulfillmentDuration.Observe(time.Since(started).Seconds())
	s.Logger.Info("FULFILL", fmt.Sprintf("Session %s fulfilled: %d sales for event %s", sessionID, len(outcome.Created), event.ID))

	if len(outcome.Created) > 0 {
		s.notify(sessionID, *event, *cart, outcome.Created)
	}

	return &Result{SalesCount: len(outcome.Created), Conflicts: outcome.StockConflicts}, nil
}

// buildPlan expands the cart into per-type sale rows. Quantities for ticket
// types that no longer exist are dropped, matching the catalog as it stands
// at fulfillment time.
func (s *Service) buildPlan(sessionID string, cart models.Cart, typesByID map[string]models.TicketType) []models.FulfillmentPlanItem {
	ids := make([]string, 0, len(cart.SelectedTickets))
	for id := range cart.SelectedTickets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := time.Now()
	var items []models.FulfillmentPlanItem
	for _, id := range ids {
		qty := cart.SelectedTickets[id]
		t, ok := typesByID[id]
		if !ok || qty <= 0 {
			continue
		}

		sales := make([]models.Sale, 0, qty)
		for i := 0; i < qty; i++ {
			sales = append(sales, models.Sale{
				ID:                newSaleID(),
				EventID:           cart.EventID,
				TicketTypeID:      t.ID,
				BuyerID:           cart.BuyerEmail,
				Amount:            t.Price,
				CommissionAmount:  0,
				Status:            models.SaleStatusCompleted,
				QRCode:            qr.NewCode(),
				DemographicAge:    cart.DemographicAge,
				DemographicGender: cart.DemographicGender,
				GeographyCity:     cart.GeographyCity,
				TransportAdded:    cart.IncludeTransport,
				StripeSessionID:   sessionID,
				CreatedAt:         now,
			})
		}

		items = append(items, models.FulfillmentPlanItem{
			TicketType: t,
			Quantity:   qty,
			Sales:      sales,
		})
	}
	return items
}

// notify sends the confirmation email and streams the fulfillment event.
// Both are best-effort: payment and provisioning already committed, so
// failures are logged and the delivery is still acknowledged.
func (s *Service) notify(sessionID string, event models.Event, cart models.Cart, created []models.Sale) {
	codes := make([]string, 0, len(created))
	for _, sale := range created {
		codes = append(codes, sale.QRCode)
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendConfirmation(cart.BuyerEmail, event.Title, codes, sessionID); err != nil {
			s.Logger.Error("EMAIL", fmt.Sprintf("Confirmation email for session %s failed: %v", sessionID, err))
		} else {
			s.Logger.Info("EMAIL", fmt.Sprintf("Confirmation sent to %s for session %s", cart.BuyerEmail, sessionID))
		}
	}

	if s.Producer != nil {
		evt := kafka.SalesFulfilledEvent{
			SessionID:  sessionID,
			EventID:    event.ID,
			BuyerEmail: cart.BuyerEmail,
			Sales:      created,
			Timestamp:  time.Now(),
		}
		if err := s.Producer.PublishSalesFulfilled(s.Topic, evt); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish fulfillment event for session %s: %v", sessionID, err))
		}
	}
}
