package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-boxoffice/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetEventByID fetches one event regardless of publish status. The checkout
// path gates on existence only; the public catalog applies the published
// filter on top.
func (d *DB) GetEventByID(id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListPublishedEvents returns published events ordered by date.
func (d *DB) ListPublishedEvents(limit int) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("status = ?", models.EventStatusPublished).
		Order("date ASC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return events, nil
}

// GetTicketTypesByEvent fetches all ticket types belonging to an event.
func (d *DB) GetTicketTypesByEvent(eventID string) ([]models.TicketType, error) {
	var types []models.TicketType
	err := d.Bun.NewSelect().
		Model(&types).
		Where("event_id = ?", eventID).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return types, nil
}
