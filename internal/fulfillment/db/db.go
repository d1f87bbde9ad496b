package db

import (
	"context"
	"database/sql"

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

// SalesBySession fetches all sales stamped with a payment session id, in
// creation order.
func (d *DB) SalesBySession(sessionID string) ([]models.Sale, error) {
	var sales []models.Sale
	err := d.Bun.NewSelect().
		Model(&sales).
		Where("stripe_session_id = ?", sessionID).
		Order("created_at ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// FulfillSession materializes sales for one completed session inside a
// single transaction:
//
//  1. If any sale already carries the session id, nothing is written and
//     the existing count is reported. Combined with the handler-level
//     short-circuit this makes provider redeliveries no-ops.
//  2. Per ticket type the sold counter advances through a conditional
//     update guarded by `sold + n <= quantity`; a type whose guard matches
//     no row is recorded as a stock conflict and issues no sales, so the
//     sold <= quantity invariant holds even when concurrent payments
//     outran the advisory checkout-time check.
func (d *DB) FulfillSession(sessionID string, items []models.FulfillmentPlanItem) (*models.FulfillmentOutcome, error) {
	outcome := &models.FulfillmentOutcome{}

	err := d.Bun.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing, err := tx.NewSelect().
			Model((*models.Sale)(nil)).
			Where("stripe_session_id = ?", sessionID).
			Count(ctx)
		if err != nil {
			return err
		}
		if existing > 0 {
			outcome.AlreadyFulfilled = true
			outcome.ExistingCount = existing
			return nil
		}

		for _, item := range items {
			if item.Quantity <= 0 {
				continue
			}

			res, err := tx.NewUpdate().
				Model((*models.TicketType)(nil)).
				Set("sold = sold + ?", item.Quantity).
				Where("id = ?", item.TicketType.ID).
				Where("sold + ? <= quantity", item.Quantity).
				Exec(ctx)
			if err != nil {
				return err
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows == 0 {
				outcome.StockConflicts = append(outcome.StockConflicts, item.TicketType.Name)
				continue
			}

			sales := item.Sales
			if _, err := tx.NewInsert().Model(&sales).Exec(ctx); err != nil {
				return err
			}
			outcome.Created = append(outcome.Created, sales...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
