package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/orders/db"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Event)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Sale)(nil)))

	return &db.DB{Bun: bunDB}
}

func seedSale(t *testing.T, d *db.DB, id, code, status string) {
	sale := &models.Sale{
		ID:              id,
		EventID:         "event1",
		TicketTypeID:    "tt1",
		BuyerID:         "buyer@example.com",
		Status:          status,
		QRCode:          code,
		StripeSessionID: "cs_1",
		CreatedAt:       time.Now(),
	}
	_, err := d.Bun.NewInsert().Model(sale).Exec(context.Background())
	require.NoError(t, err)
}

func TestGetSaleByQRCode(t *testing.T) {
	d := setupTestDB(t)
	seedSale(t, d, "s1", "QR_AAAAAAAAAA", models.SaleStatusCompleted)

	sale, err := d.GetSaleByQRCode("QR_AAAAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "s1", sale.ID)

	_, err = d.GetSaleByQRCode("QR_ZZZZZZZZZZ")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCheckInSale(t *testing.T) {
	d := setupTestDB(t)
	seedSale(t, d, "s1", "QR_AAAAAAAAAA", models.SaleStatusCompleted)

	ok, err := d.CheckInSale("s1")
	require.NoError(t, err)
	assert.True(t, ok)

	sale, err := d.GetSaleByQRCode("QR_AAAAAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCheckedIn, sale.Status)
	assert.False(t, sale.CheckedInAt.IsZero())

	// Second attempt matches no row.
	ok, err = d.CheckInSale("s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckInSaleUnknownID(t *testing.T) {
	d := setupTestDB(t)

	ok, err := d.CheckInSale("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSalesBySessionLimit(t *testing.T) {
	d := setupTestDB(t)
	seedSale(t, d, "s1", "QR_AAAAAAAAAA", models.SaleStatusCompleted)
	seedSale(t, d, "s2", "QR_BBBBBBBBBB", models.SaleStatusCompleted)
	seedSale(t, d, "s3", "QR_CCCCCCCCCC", models.SaleStatusCompleted)

	sales, err := d.SalesBySession("cs_1", 2)
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	sales, err = d.SalesBySession("cs_1", 100)
	require.NoError(t, err)
	assert.Len(t, sales, 3)

	sales, err = d.SalesBySession("cs_other", 100)
	require.NoError(t, err)
	assert.Empty(t, sales)
}
