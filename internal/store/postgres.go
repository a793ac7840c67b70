package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payment-transactions-server/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, merchant_id, customer_id, amount, currency,
	payment_method, description, status, created_at, updated_at`

type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, timeout: timeout}
}

func (s *PostgresStore) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (
			id, merchant_id, customer_id, amount, currency,
			payment_method, description, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			merchant_id = EXCLUDED.merchant_id,
			customer_id = EXCLUDED.customer_id,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			payment_method = EXCLUDED.payment_method,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`,
		tx.ID,
		tx.MerchantID,
		tx.CustomerID,
		tx.Amount,
		tx.Currency,
		tx.PaymentMethod,
		tx.Description,
		string(tx.Status),
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	return tx, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions WHERE id = $1
	`, transactionColumns), id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (s *PostgresStore) FindAll(ctx context.Context, req PageRequest) (*Page, error) {
	return s.findPage(ctx, req, "", nil)
}

func (s *PostgresStore) FindByMerchant(ctx context.Context, merchantID string) ([]models.Transaction, error) {
	return s.findList(ctx, "WHERE merchant_id = $1", merchantID)
}

func (s *PostgresStore) FindByMerchantPage(ctx context.Context, merchantID string, req PageRequest) (*Page, error) {
	return s.findPage(ctx, req, "WHERE merchant_id = $1", []any{merchantID})
}

func (s *PostgresStore) FindByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return s.findList(ctx, "WHERE customer_id = $1", customerID)
}

func (s *PostgresStore) FindByCustomerPage(ctx context.Context, customerID string, req PageRequest) (*Page, error) {
	return s.findPage(ctx, req, "WHERE customer_id = $1", []any{customerID})
}

func (s *PostgresStore) FindByStatus(ctx context.Context, status models.Status) ([]models.Transaction, error) {
	return s.findList(ctx, "WHERE status = $1", string(status))
}

func (s *PostgresStore) FindByStatusPage(ctx context.Context, status models.Status, req PageRequest) (*Page, error) {
	return s.findPage(ctx, req, "WHERE status = $1", []any{string(status)})
}

func (s *PostgresStore) FindByCreatedAtRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.findList(ctx, "WHERE created_at BETWEEN $1 AND $2", start, end)
}

func (s *PostgresStore) SumAmount(ctx context.Context, merchantID string, status models.Status) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE merchant_id = $1 AND status = $2
	`, merchantID, string(status))

	var total decimal.Decimal
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum amount: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)", id)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check transaction exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, "DELETE FROM transactions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findList(ctx context.Context, whereSQL string, args ...any) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		%s
		ORDER BY created_at DESC
	`, transactionColumns, whereSQL)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (s *PostgresStore) findPage(ctx context.Context, req PageRequest, whereSQL string, args []any) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req = req.Normalize()
	sortDir := "ASC"
	if req.Descending() {
		sortDir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		%s
		ORDER BY %s %s
		LIMIT %d OFFSET %d
	`, transactionColumns, whereSQL, mapSortColumn(req.SortBy), sortDir, req.Size, req.Offset())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page transactions: %w", err)
	}
	defer rows.Close()

	content, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", whereSQL)
	row := s.pool.QueryRow(ctx, countQuery, args...)
	var total int64
	if err := row.Scan(&total); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	return NewPage(content, req, total), nil
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var results []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		results = append(results, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return results, nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	var status string
	if err := row.Scan(
		&tx.ID,
		&tx.MerchantID,
		&tx.CustomerID,
		&tx.Amount,
		&tx.Currency,
		&tx.PaymentMethod,
		&tx.Description,
		&status,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tx.Status = models.Status(status)
	return &tx, nil
}

func mapSortColumn(sortBy string) string {
	switch strings.ToLower(sortBy) {
	case "amount":
		return "amount"
	case "merchantid":
		return "merchant_id"
	case "customerid":
		return "customer_id"
	case "status":
		return "status"
	case "updatedat":
		return "updated_at"
	default:
		return "created_at"
	}
}
