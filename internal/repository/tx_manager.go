package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"go-inventory-sales/pkg/database"
)

const maxTxAttempts = 3

// TransactionManager runs a unit of work inside one database transaction.
type TransactionManager interface {
	// WithTransaction commits when fn returns nil and rolls back otherwise.
	// fn may run more than once if the database aborts it for a
	// serialization conflict, so it must not have effects outside tx.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transactionManager struct {
	db   *gorm.DB
	opts []*sql.TxOptions
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	tm := &transactionManager{db: db}
	// SQLite transactions are already serializable; PostgreSQL needs asking.
	if db.Dialector.Name() == database.DriverPostgres {
		tm.opts = []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
	}
	return tm
}

func (tm *transactionManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = tm.db.WithContext(ctx).Transaction(fn, tm.opts...)
		if !isRetryable(err) {
			return err
		}
	}
	return err
}

// isRetryable matches serialization failures and deadlocks.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
