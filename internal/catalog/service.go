package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ms-boxoffice/internal/models"
)

// ErrNotFound signals a missing or unpublished event on the public paths.
var ErrNotFound = errors.New("event not found")

const publicListLimit = 200

type DBLayer interface {
	GetEventByID(id string) (*models.Event, error)
	ListPublishedEvents(limit int) ([]models.Event, error)
	GetTicketTypesByEvent(eventID string) ([]models.TicketType, error)
}

type Service struct {
	DB DBLayer
}

func NewService(db DBLayer) *Service {
	return &Service{DB: db}
}

type EventDetails struct {
	Event       models.Event        `json:"event"`
	TicketTypes []models.TicketType `json:"ticketTypes"`
}

// GetPublicEvent resolves an event for the public catalog. Draft events are
// indistinguishable from missing ones.
func (s *Service) GetPublicEvent(id string) (*EventDetails, error) {
	event, err := s.DB.GetEventByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch event %s: %w", id, err)
	}
	if event.Status != models.EventStatusPublished {
		return nil, ErrNotFound
	}

	types, err := s.DB.GetTicketTypesByEvent(id)
	if err != nil {
		return nil, fmt.Errorf("fetch ticket types for event %s: %w", id, err)
	}
	if types == nil {
		types = []models.TicketType{}
	}

	return &EventDetails{Event: *event, TicketTypes: types}, nil
}

// ListPublicEvents returns published events, optionally filtered by a
// case-insensitive substring over title and location. Filtering happens
// after the query, matching the small catalog sizes this serves.
func (s *Service) ListPublicEvents(query string) ([]models.Event, error) {
	events, err := s.DB.ListPublishedEvents(publicListLimit)
	if err != nil {
		return nil, fmt.Errorf("list published events: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if events == nil {
			events = []models.Event{}
		}
		return events, nil
	}

	filtered := []models.Event{}
	for _, event := range events {
		title := strings.ToLower(event.Title)
		location := strings.ToLower(event.Location)
		if strings.Contains(title, q) || strings.Contains(location, q) {
			filtered = append(filtered, event)
		}
	}
	return filtered, nil
}
