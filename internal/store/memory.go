package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"payment-transactions-server/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps transactions in a mutex-guarded map. It backs tests and
// local development; behavior mirrors the postgres and mongo variants.
type MemoryStore struct {
	mu  sync.RWMutex
	txs map[string]models.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]models.Transaction)}
}

func (s *MemoryStore) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs[tx.ID] = *tx
	return tx, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tx, nil
}

func (s *MemoryStore) FindAll(ctx context.Context, req PageRequest) (*Page, error) {
	return s.page(s.filter(func(models.Transaction) bool { return true }), req), nil
}

func (s *MemoryStore) FindByMerchant(ctx context.Context, merchantID string) ([]models.Transaction, error) {
	return s.listNewestFirst(func(tx models.Transaction) bool { return tx.MerchantID == merchantID }), nil
}

func (s *MemoryStore) FindByMerchantPage(ctx context.Context, merchantID string, req PageRequest) (*Page, error) {
	return s.page(s.filter(func(tx models.Transaction) bool { return tx.MerchantID == merchantID }), req), nil
}

func (s *MemoryStore) FindByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error) {
	return s.listNewestFirst(func(tx models.Transaction) bool { return tx.CustomerID == customerID }), nil
}

func (s *MemoryStore) FindByCustomerPage(ctx context.Context, customerID string, req PageRequest) (*Page, error) {
	return s.page(s.filter(func(tx models.Transaction) bool { return tx.CustomerID == customerID }), req), nil
}

func (s *MemoryStore) FindByStatus(ctx context.Context, status models.Status) ([]models.Transaction, error) {
	return s.listNewestFirst(func(tx models.Transaction) bool { return tx.Status == status }), nil
}

func (s *MemoryStore) FindByStatusPage(ctx context.Context, status models.Status, req PageRequest) (*Page, error) {
	return s.page(s.filter(func(tx models.Transaction) bool { return tx.Status == status }), req), nil
}

func (s *MemoryStore) FindByCreatedAtRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	return s.listNewestFirst(func(tx models.Transaction) bool {
		return !tx.CreatedAt.Before(start) && !tx.CreatedAt.After(end)
	}), nil
}

func (s *MemoryStore) SumAmount(ctx context.Context, merchantID string, status models.Status) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, tx := range s.txs {
		if tx.MerchantID == merchantID && tx.Status == status {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (s *MemoryStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.txs[id]
	return ok, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[id]; !ok {
		return ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *MemoryStore) filter(match func(models.Transaction) bool) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []models.Transaction
	for _, tx := range s.txs {
		if match(tx) {
			results = append(results, tx)
		}
	}
	return results
}

func (s *MemoryStore) listNewestFirst(match func(models.Transaction) bool) []models.Transaction {
	results := s.filter(match)
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results
}

func (s *MemoryStore) page(results []models.Transaction, req PageRequest) *Page {
	req = req.Normalize()
	sortTransactions(results, req)

	total := int64(len(results))
	start := req.Offset()
	if start > len(results) {
		start = len(results)
	}
	end := start + req.Size
	if end > len(results) {
		end = len(results)
	}
	return NewPage(results[start:end], req, total)
}

func sortTransactions(txs []models.Transaction, req PageRequest) {
	less := func(a, b models.Transaction) bool {
		switch strings.ToLower(req.SortBy) {
		case "amount":
			if !a.Amount.Equal(b.Amount) {
				return a.Amount.LessThan(b.Amount)
			}
		case "merchantid":
			if a.MerchantID != b.MerchantID {
				return a.MerchantID < b.MerchantID
			}
		case "customerid":
			if a.CustomerID != b.CustomerID {
				return a.CustomerID < b.CustomerID
			}
		case "status":
			if a.Status != b.Status {
				return a.Status < b.Status
			}
		case "updatedat":
			at, bt := timeOrZero(a.UpdatedAt), timeOrZero(b.UpdatedAt)
			if !at.Equal(bt) {
				return at.Before(bt)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}

	sort.Slice(txs, func(i, j int) bool {
		if req.Descending() {
			return less(txs[j], txs[i])
		}
		return less(txs[i], txs[j])
	})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
