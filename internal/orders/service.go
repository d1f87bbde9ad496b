package orders

import (
	"database/sql"
	"errors"
	"fmt"

	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/metrics"
	"ms-boxoffice/internal/models"
)

// sessionSalesLimit caps how many codes a single order lookup returns.
const sessionSalesLimit = 100

var (
	ErrNotFound         = errors.New("sale not found")
	ErrAlreadyCheckedIn = errors.New("sale already checked in")
)

type DBLayer interface {
	GetEventByID(id string) (*models.Event, error)
	SalesBySession(sessionID string, limit int) ([]models.Sale, error)
	GetSaleByQRCode(code string) (*models.Sale, error)
	CheckInSale(id string) (bool, error)
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

// OrderCode is one admission code inside an order status response.
type OrderCode struct {
	QRCode string `json:"qrCode"`
	Status string `json:"status"`
}

// OrderStatus is the polling payload for a checkout session. Ready stays
// false until the webhook has materialized the sales.
type OrderStatus struct {
	Ready      bool        `json:"ready"`
	BuyerEmail string      `json:"buyerEmail,omitempty"`
	EventTitle string      `json:"eventTitle,omitempty"`
	Codes      []OrderCode `json:"codes,omitempty"`
}

// GetOrderStatus reports whether the sales for a session exist yet, and if
// so returns the buyer's codes. An unknown session is indistinguishable
// from a not-yet-fulfilled one.
func (s *Service) GetOrderStatus(sessionID string) (*OrderStatus, error) {
	sales, err := s.DB.SalesBySession(sessionID, sessionSalesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	if len(sales) == 0 {
		return &OrderStatus{Ready: false}, nil
	}

	status := &OrderStatus{
		Ready:      true,
		BuyerEmail: sales[0].BuyerID,
		Codes:      make([]OrderCode, 0, len(sales)),
	}
	for _, sale := range sales {
		status.Codes = append(status.Codes, OrderCode{QRCode: sale.QRCode, Status: sale.Status})
	}

	event, err := s.DB.GetEventByID(sales[0].EventID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load event: %w", err)
		}
		s.Logger.Warn("ORDERS", fmt.Sprintf("Event %s missing for session %s", sales[0].EventID, sessionID))
	} else {
		status.EventTitle = event.Title
	}
	return status, nil
}

// CheckInResult describes a successful admission.
type CheckInResult struct {
	SaleID     string `json:"saleId"`
	EventID    string `json:"eventId"`
	BuyerEmail string `json:"buyerEmail"`
}

// CheckIn admits the holder of a code. A code can be redeemed exactly
// once: a second scan gets ErrAlreadyCheckedIn.
func (s *Service) CheckIn(code string) (*CheckInResult, error) {
	sale, err := s.DB.GetSaleByQRCode(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.CheckIns.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	if sale.Status != models.SaleStatusCompleted {
		metrics.CheckIns.WithLabelValues("duplicate").Inc()
		return nil, ErrAlreadyCheckedIn
	}

	ok, err := s.DB.CheckInSale(sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check in sale: %w", err)
	}
	if !ok {
		// Lost the race with another scanner.
		metrics.CheckIns.WithLabelValues("duplicate").Inc()
		return nil, ErrAlreadyCheckedIn
	}

	metrics.CheckIns.WithLabelValues("admitted").Inc()
	s.Logger.Info("ORDERS", fmt.Sprintf("Checked in sale %s (code %s)", sale.ID, code))
	return &CheckInResult{SaleID: sale.ID, EventID: sale.EventID, BuyerEmail: sale.BuyerID}, nil
}

// ImageEncoder renders an admission code into image bytes.
type ImageEncoder func(code string) ([]byte, error)

// TicketImage renders the QR PNG for an existing admission code.
func (s *Service) TicketImage(code string, encode ImageEncoder) ([]byte, error) {
	if _, err := s.DB.GetSaleByQRCode(code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	return encode(code)
}
