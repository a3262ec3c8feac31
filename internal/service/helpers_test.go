package service

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/internal/telemetry"
	"go-inventory-sales/pkg/database"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// newFileTestDB is backed by a file so concurrent callers share one store.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "sales.db"))
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	db, err := database.Connect(database.Options{Driver: database.DriverSQLite, DSN: dsn}, discardLogger)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int, price string) *model.Product {
	t.Helper()

	p := &model.Product{
		Name:          name,
		StockQuantity: stock,
		Price:         decimal.RequireFromString(price),
		RegisteredAt:  time.Now().UTC(),
		Active:        true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()

	var p model.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQuantity
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func newSaleServiceForTest(db *gorm.DB, tel *telemetry.Providers) SaleService {
	return NewSaleService(
		repository.NewProductRepo(db),
		repository.NewSaleRepo(db),
		repository.NewOutboxRepo(db),
		repository.NewTransactionManager(db),
		nil,
		tel,
		discardLogger,
	)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func boolPtr(b bool) *bool {
	return &b
}
