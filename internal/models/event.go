package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID        string    `bun:"id,pk" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Status    string    `bun:"status,notnull" json:"status"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	Location  string    `bun:"location" json:"location"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID          string  `bun:"id,pk" json:"id"`
	EventID     string  `bun:"event_id,notnull" json:"eventId"`
	Name        string  `bun:"name,notnull" json:"name"`
	Description string  `bun:"description" json:"description,omitempty"`
	Price       float64 `bun:"price,notnull" json:"price"`
	Quantity    int     `bun:"quantity,notnull" json:"quantity"`
	Sold        int     `bun:"sold,notnull" json:"sold"`
}

// Remaining is the sellable stock left for this ticket type.
func (t TicketType) Remaining() int {
	return t.Quantity - t.Sold
}
