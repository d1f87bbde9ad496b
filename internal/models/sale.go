package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SaleStatusCompleted = "completed"
	SaleStatusCheckedIn = "checked-in"
)

// Sale is one issued ticket unit. A row is created per unit at fulfillment
// time, never before payment confirmation. The only mutation after creation
// is the completed → checked-in transition.
type Sale struct {
	bun.BaseModel `bun:"table:sales"`

	ID                string    `bun:"id,pk" json:"id"`
	EventID           string    `bun:"event_id,notnull" json:"eventId"`
	TicketTypeID      string    `bun:"ticket_type_id,notnull" json:"ticketTypeId"`
	BuyerID           string    `bun:"buyer_id,notnull" json:"buyerId"`
	SellerID          string    `bun:"seller_id,nullzero" json:"sellerId,omitempty"`
	Amount            float64   `bun:"amount,notnull" json:"amount"`
	CommissionAmount  float64   `bun:"commission_amount,notnull" json:"commissionAmount"`
	Status            string    `bun:"status,notnull" json:"status"`
	QRCode            string    `bun:"qr_code,notnull,unique" json:"qrCode"`
	DemographicAge    int       `bun:"demographic_age" json:"demographicAge"`
	DemographicGender string    `bun:"demographic_gender" json:"demographicGender"`
	GeographyCity     string    `bun:"geography_city" json:"geographyCity"`
	TransportAdded    bool      `bun:"transport_added" json:"transportAdded"`
	StripeSessionID   string    `bun:"stripe_session_id,notnull" json:"stripeSessionId"`
	CreatedAt         time.Time `bun:"created_at,notnull" json:"createdAt"`
	CheckedInAt       time.Time `bun:"checked_in_at,nullzero" json:"checkedInAt,omitempty"`
}
