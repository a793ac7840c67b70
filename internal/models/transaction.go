package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

var statuses = map[Status]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if _, ok := statuses[s]; !ok {
		return "", fmt.Errorf("unknown transaction status %q", value)
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

type Transaction struct {
	ID            string          `json:"id"`
	MerchantID    string          `json:"merchantId"`
	CustomerID    string          `json:"customerId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	Description   *string         `json:"description,omitempty"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

// NewTransaction assigns the id and creation timestamp. Status starts at
// PENDING until mock processing overwrites it.
func NewTransaction(merchantID, customerID string, amount decimal.Decimal, currency, paymentMethod string, description *string) *Transaction {
	return &Transaction{
		ID:            uuid.NewString(),
		MerchantID:    merchantID,
		CustomerID:    customerID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: paymentMethod,
		Description:   description,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

// SetStatus stamps updated_at on every change, including the first one at
// creation time.
func (t *Transaction) SetStatus(status Status) {
	t.Status = status
	now := time.Now().UTC()
	t.UpdatedAt = &now
}
