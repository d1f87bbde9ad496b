package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-boxoffice/internal/models"
)

type DB struct {
	Bun *bun.DB
}

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

// SalesBySession fetches up to limit sales for a payment session, oldest
// first.
func (d *DB) SalesBySession(sessionID string, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := d.Bun.NewSelect().
		Model(&sales).
		Where("stripe_session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// GetSaleByQRCode resolves one sale by its admission code.
func (d *DB) GetSaleByQRCode(code string) (*models.Sale, error) {
	var sale models.Sale
	err := d.Bun.NewSelect().
		Model(&sale).
		Where("qr_code = ?", code).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// CheckInSale flips a sale from completed to checked-in. The update is
// conditional on the current status so two concurrent scans admit exactly
// one; false means the sale was not in the completed state anymore.
func (d *DB) CheckInSale(id string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Sale)(nil)).
		Set("status = ?", models.SaleStatusCheckedIn).
		Set("checked_in_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status = ?", models.SaleStatusCompleted).
		Exec(context.Background())
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
