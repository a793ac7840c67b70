package services

import (
	"context"
	"errors"
	"time"

	"payment-transactions-server/internal/models"
	"payment-transactions-server/internal/store"
	"github.com/shopspring/decimal"
)

type CreateTransactionInput struct {
	MerchantID    string
	CustomerID    string
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	Description   *string
}

// TransactionService orchestrates transaction lifecycle on top of the store.
// Status updates are load-mutate-save with no version check; concurrent
// updates to the same record are last-write-wins.
type TransactionService struct {
	store     store.TransactionStore
	processor *PaymentProcessor
}

func NewTransactionService(st store.TransactionStore, processor *PaymentProcessor) *TransactionService {
	return &TransactionService{store: st, processor: processor}
}

// Create builds the transaction, runs it through mock processing and persists
// the outcome.
func (s *TransactionService) Create(ctx context.Context, in CreateTransactionInput) (*models.Transaction, error) {
	tx := models.NewTransaction(in.MerchantID, in.CustomerID, in.Amount, in.Currency, in.PaymentMethod, in.Description)
	tx.SetStatus(s.processor.Process())
	return s.store.Save(ctx, tx)
}

func (s *TransactionService) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	return s.store.FindByID(ctx, id)
}

func (s *TransactionService) ListAll(ctx context.Context, req store.PageRequest) (*store.Page, error) {
	return s.store.FindAll(ctx, req)
}

func (s *TransactionService) ListByMerchant(ctx context.Context, merchantID string) ([]models.Transaction, error) {
	return s.store.FindByMerchant(ctx, merchantID)
}

func (s *TransactionService) ListByMerchantPage(ctx context.Context, merchantID string, req store.PageRequest) (*store.Page, error) {
	return s.store.FindByMerchantPage(ctx, merchantID, req)
}

func (s *TransactionService) ListByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return s.store.FindByCustomer(ctx, customerID)
}

func (s *TransactionService) ListByCustomerPage(ctx context.Context, customerID string, req store.PageRequest) (*store.Page, error) {
	return s.store.FindByCustomerPage(ctx, customerID, req)
}

func (s *TransactionService) ListByStatus(ctx context.Context, status models.Status) ([]models.Transaction, error) {
	return s.store.FindByStatus(ctx, status)
}

func (s *TransactionService) ListByStatusPage(ctx context.Context, status models.Status, req store.PageRequest) (*store.Page, error) {
	return s.store.FindByStatusPage(ctx, status, req)
}

func (s *TransactionService) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.store.FindByCreatedAtRange(ctx, start, end)
}

// UpdateStatus accepts any recognized status; the lifecycle states are
// advisory and no transition is rejected.
func (s *TransactionService) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Transaction, error) {
	tx, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tx.SetStatus(status)
	return s.store.Save(ctx, tx)
}

func (s *TransactionService) TotalAmount(ctx context.Context, merchantID string, status models.Status) (decimal.Decimal, error) {
	return s.store.SumAmount(ctx, merchantID, status)
}

// Delete reports false when the id does not exist; otherwise the record is
// removed permanently.
func (s *TransactionService) Delete(ctx context.Context, id string) (bool, error) {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
