package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the transactions table and its query indexes if the
// database does not have them yet. Runs once at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			amount NUMERIC(10,2) NOT NULL CHECK (amount > 0),
			currency CHAR(3) NOT NULL,
			payment_method TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_merchant ON transactions (merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions (customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions (status)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (created_at)`,
	}

	for _, stmt := range statements {
		ctxExec, cancel := context.WithTimeout(ctx, timeout)
		_, err := pool.Exec(ctxExec, stmt)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure transactions schema: %w", err)
		}
	}
	return nil
}
