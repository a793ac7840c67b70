package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"payment-transactions-server/internal/models"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("transaction not found")

// PageRequest describes a zero-indexed page slice of a query result.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

func DefaultPageRequest() PageRequest {
	return PageRequest{Page: 0, Size: 10, SortBy: "createdAt", SortDir: "desc"}
}

// Normalize clamps out-of-range paging values and resolves the sort
// direction so every backend sees the same request shape.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = 10
	}
	if strings.TrimSpace(p.SortBy) == "" {
		p.SortBy = "createdAt"
	}
	if !strings.EqualFold(p.SortDir, "asc") {
		p.SortDir = "desc"
	} else {
		p.SortDir = "asc"
	}
	return p
}

func (p PageRequest) Descending() bool {
	return p.SortDir != "asc"
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page struct {
	Content       []models.Transaction `json:"content"`
	Page          int                  `json:"page"`
	Size          int                  `json:"size"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
}

func NewPage(content []models.Transaction, req PageRequest, total int64) *Page {
	if content == nil {
		content = []models.Transaction{}
	}
	totalPages := int(math.Ceil(float64(total) / float64(req.Size)))
	return &Page{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// TransactionStore is the persistence contract shared by the relational and
// document backends. Save upserts by id; lookups that miss return ErrNotFound.
type TransactionStore interface {
	Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindAll(ctx context.Context, req PageRequest) (*Page, error)
	FindByMerchant(ctx context.Context, merchantID string) ([]models.Transaction, error)
	FindByMerchantPage(ctx context.Context, merchantID string, req PageRequest) (*Page, error)
	FindByCustomer(ctx context.Context, customerID string) ([]models.Transaction, error)
	FindByCustomerPage(ctx context.Context, customerID string, req PageRequest) (*Page, error)
	FindByStatus(ctx context.Context, status models.Status) ([]models.Transaction, error)
	FindByStatusPage(ctx context.Context, status models.Status, req PageRequest) (*Page, error)
	FindByCreatedAtRange(ctx context.Context, start, end time.Time) ([]models.Transaction, error)
	SumAmount(ctx context.Context, merchantID string, status models.Status) (decimal.Decimal, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	DeleteByID(ctx context.Context, id string) error
}
