package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"payment-transactions-server/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T, mem *MemoryStore, count int) []models.Transaction {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var txs []models.Transaction
	for i := 0; i < count; i++ {
		tx := models.NewTransaction(
			fmt.Sprintf("M%d", i%2),
			fmt.Sprintf("C%d", i%3),
			decimal.NewFromInt(int64(i+1)),
			"USD",
			"card",
			nil,
		)
		tx.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if i%2 == 0 {
			tx.SetStatus(models.StatusCompleted)
		} else {
			tx.SetStatus(models.StatusFailed)
		}
		_, err := mem.Save(ctx, tx)
		require.NoError(t, err)
		txs = append(txs, *tx)
	}
	return txs
}

func TestMemorySaveIsUpsert(t *testing.T) {
	mem := NewMemoryStore()
	ctx := context.Background()

	tx := models.NewTransaction("M1", "C1", decimal.RequireFromString("9.99"), "USD", "card", nil)
	_, err := mem.Save(ctx, tx)
	require.NoError(t, err)

	tx.SetStatus(models.StatusCancelled)
	_, err = mem.Save(ctx, tx)
	require.NoError(t, err)

	stored, err := mem.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	page, err := mem.FindAll(ctx, DefaultPageRequest())
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalElements)
}

func TestMemoryFindByIDMissing(t *testing.T) {
	mem := NewMemoryStore()

	_, err := mem.FindByID(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFindAllPagination(t *testing.T) {
	mem := NewMemoryStore()
	seedMemory(t, mem, 25)
	ctx := context.Background()

	page, err := mem.FindAll(ctx, DefaultPageRequest())
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.EqualValues(t, 25, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Content, 10)

	// Default sort is createdAt descending.
	for i := 1; i < len(page.Content); i++ {
		assert.False(t, page.Content[i-1].CreatedAt.Before(page.Content[i].CreatedAt))
	}

	last, err := mem.FindAll(ctx, PageRequest{Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, last.Content, 5)

	beyond, err := mem.FindAll(ctx, PageRequest{Page: 9, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.EqualValues(t, 25, beyond.TotalElements)
}

func TestMemoryFindAllSortByAmountAsc(t *testing.T) {
	mem := NewMemoryStore()
	seedMemory(t, mem, 5)

	page, err := mem.FindAll(context.Background(), PageRequest{Size: 5, SortBy: "amount", SortDir: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Content, 5)
	for i := 1; i < len(page.Content); i++ {
		assert.True(t, page.Content[i-1].Amount.LessThanOrEqual(page.Content[i].Amount))
	}
}

func TestMemoryFieldLookups(t *testing.T) {
	mem := NewMemoryStore()
	seedMemory(t, mem, 10)
	ctx := context.Background()

	byMerchant, err := mem.FindByMerchant(ctx, "M0")
	require.NoError(t, err)
	assert.Len(t, byMerchant, 5)

	byCustomer, err := mem.FindByCustomer(ctx, "C1")
	require.NoError(t, err)
	assert.Len(t, byCustomer, 3)

	byStatus, err := mem.FindByStatus(ctx, models.StatusCompleted)
	require.NoError(t, err)
	assert.Len(t, byStatus, 5)

	merchantPage, err := mem.FindByMerchantPage(ctx, "M0", PageRequest{Size: 2})
	require.NoError(t, err)
	assert.Len(t, merchantPage.Content, 2)
	assert.EqualValues(t, 5, merchantPage.TotalElements)
	assert.Equal(t, 3, merchantPage.TotalPages)
}

func TestMemoryCreatedAtRangeInclusive(t *testing.T) {
	mem := NewMemoryStore()
	txs := seedMemory(t, mem, 4)
	ctx := context.Background()

	items, err := mem.FindByCreatedAtRange(ctx, txs[1].CreatedAt, txs[2].CreatedAt)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	none, err := mem.FindByCreatedAtRange(ctx, txs[3].CreatedAt.Add(time.Hour), txs[3].CreatedAt.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemorySumAmount(t *testing.T) {
	mem := NewMemoryStore()
	ctx := context.Background()

	total, err := mem.SumAmount(ctx, "M1", models.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for _, amount := range []string{"10.00", "20.00"} {
		tx := models.NewTransaction("M1", "C1", decimal.RequireFromString(amount), "USD", "card", nil)
		tx.SetStatus(models.StatusCompleted)
		_, err := mem.Save(ctx, tx)
		require.NoError(t, err)
	}
	other := models.NewTransaction("M2", "C1", decimal.RequireFromString("99.00"), "USD", "card", nil)
	other.SetStatus(models.StatusCompleted)
	_, err = mem.Save(ctx, other)
	require.NoError(t, err)

	total, err = mem.SumAmount(ctx, "M1", models.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("30.00")), "got %s", total)
}

func TestMemoryExistsAndDelete(t *testing.T) {
	mem := NewMemoryStore()
	ctx := context.Background()

	tx := models.NewTransaction("M1", "C1", decimal.RequireFromString("5.00"), "USD", "card", nil)
	_, err := mem.Save(ctx, tx)
	require.NoError(t, err)

	exists, err := mem.ExistsByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, mem.DeleteByID(ctx, tx.ID))

	exists, err = mem.ExistsByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.ErrorIs(t, mem.DeleteByID(ctx, tx.ID), ErrNotFound)
	_, err = mem.FindByID(ctx, tx.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
