package repository

import (
	"testing"
	"time"

	"go-inventory-sales/internal/model"
	"go-inventory-sales/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

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
