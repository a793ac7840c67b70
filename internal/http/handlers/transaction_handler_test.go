package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payment-transactions-server/internal/config"
	transport "payment-transactions-server/internal/http"
	"payment-transactions-server/internal/models"
	"payment-transactions-server/internal/services"
	"payment-transactions-server/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryStore()
	svc := services.NewTransactionService(mem, services.NewSeededPaymentProcessor(1, 0.8))
	router := transport.NewRouter(transport.Dependencies{
		Config:    &config.Config{Env: "test"},
		TxService: svc,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return router, mem
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func seedTransaction(t *testing.T, mem *store.MemoryStore, merchantID, customerID, amount string, status models.Status) *models.Transaction {
	t.Helper()
	tx := models.NewTransaction(merchantID, customerID, decimal.RequireFromString(amount), "USD", "card", nil)
	tx.SetStatus(status)
	_, err := mem.Save(context.Background(), tx)
	require.NoError(t, err)
	return tx
}

func TestCreateTransaction(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodPost, "/api/v1/transactions", gin.H{
		"merchantId":    "M1",
		"customerId":    "C1",
		"amount":        19.99,
		"currency":      "USD",
		"paymentMethod": "card",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Transaction created successfully", env.Message)

	var created models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, []models.Status{models.StatusCompleted, models.StatusFailed}, created.Status)

	// The stored record comes back identical on GET.
	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Status, fetched.Status)
	assert.True(t, created.Amount.Equal(fetched.Amount))
}

func TestCreateTransactionValidation(t *testing.T) {
	router, mem := newTestRouter(t)

	cases := []gin.H{
		{"customerId": "C1", "amount": 10, "currency": "USD", "paymentMethod": "card"},
		{"merchantId": "M1", "customerId": "C1", "amount": -5, "currency": "USD", "paymentMethod": "card"},
		{"merchantId": "M1", "customerId": "C1", "currency": "USD", "paymentMethod": "card"},
		{"merchantId": "M1", "customerId": "C1", "amount": 10, "paymentMethod": "card"},
		// Whitespace-only fields pass binding but must still be rejected.
		{"merchantId": "   ", "customerId": "C1", "amount": 10, "currency": "USD", "paymentMethod": "card"},
		{"merchantId": "M1", "customerId": "  ", "amount": 10, "currency": "USD", "paymentMethod": "card"},
		{"merchantId": "M1", "customerId": "C1", "amount": 10, "currency": "USD", "paymentMethod": " "},
		{"merchantId": "M1", "customerId": "C1", "amount": 10, "currency": "   ", "paymentMethod": "card"},
		// Currency must be exactly three characters.
		{"merchantId": "M1", "customerId": "C1", "amount": 10, "currency": "US", "paymentMethod": "card"},
		{"merchantId": "M1", "customerId": "C1", "amount": 10, "currency": "USDT", "paymentMethod": "card"},
	}
	for _, body := range cases {
		rec, env := doRequest(t, router, http.MethodPost, "/api/v1/transactions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)
		assert.False(t, env.Success)
		assert.NotEmpty(t, env.Message)
	}

	page, err := mem.FindAll(context.Background(), store.DefaultPageRequest())
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements, "rejected requests must not be persisted")
}

func TestGetTransactionNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/transactions/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Transaction not found", env.Message)
}

func TestListTransactionsPaged(t *testing.T) {
	router, mem := newTestRouter(t)
	for i := 0; i < 15; i++ {
		seedTransaction(t, mem, "M1", "C1", "1.00", models.StatusCompleted)
	}

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page store.Page
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.EqualValues(t, 15, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Content, 10)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions?page=1&size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Content, 5)
}

func TestListByMerchant(t *testing.T) {
	router, mem := newTestRouter(t)
	seedTransaction(t, mem, "M1", "C1", "1.00", models.StatusCompleted)
	seedTransaction(t, mem, "M1", "C2", "2.00", models.StatusFailed)
	seedTransaction(t, mem, "M2", "C1", "3.00", models.StatusCompleted)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/transactions/merchant/M1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)

	// Paging params switch the endpoint to a page response.
	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/merchant/M1?size=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page store.Page
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Content, 1)
	assert.EqualValues(t, 2, page.TotalElements)
}

func TestListByStatus(t *testing.T) {
	router, mem := newTestRouter(t)
	seedTransaction(t, mem, "M1", "C1", "1.00", models.StatusCompleted)
	seedTransaction(t, mem, "M1", "C1", "2.00", models.StatusFailed)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/transactions/status/COMPLETED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/status/BOGUS", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestUpdateStatus(t *testing.T) {
	router, mem := newTestRouter(t)
	tx := seedTransaction(t, mem, "M1", "C1", "10.00", models.StatusCompleted)

	rec, env := doRequest(t, router, http.MethodPut, "/api/v1/transactions/"+tx.ID+"/status", gin.H{"status": "REFUNDED"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Status updated successfully", env.Message)

	var updated models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.StatusRefunded, updated.Status)
	require.NotNil(t, updated.UpdatedAt)

	rec, env = doRequest(t, router, http.MethodPut, "/api/v1/transactions/"+uuid.NewString()+"/status", gin.H{"status": "REFUNDED"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = doRequest(t, router, http.MethodPut, "/api/v1/transactions/"+tx.ID+"/status", gin.H{"status": "NOPE"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListByDateRange(t *testing.T) {
	router, mem := newTestRouter(t)
	seedTransaction(t, mem, "M1", "C1", "1.00", models.StatusCompleted)

	rec, env := doRequest(t, router, http.MethodGet,
		"/api/v1/transactions/date-range?startDate=2000-01-01T00:00:00&endDate=2100-01-01T00:00:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/date-range?startDate=yesterday&endDate=tomorrow", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestTotalByMerchant(t *testing.T) {
	router, mem := newTestRouter(t)
	seedTransaction(t, mem, "M1", "C1", "10.00", models.StatusCompleted)
	seedTransaction(t, mem, "M1", "C2", "20.00", models.StatusCompleted)
	seedTransaction(t, mem, "M1", "C3", "99.00", models.StatusFailed)

	// Status defaults to COMPLETED.
	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/transactions/merchant/M1/total", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Total amount calculated", env.Message)

	// The amount is a bare JSON number on the wire, not a quoted string.
	assert.False(t, strings.HasPrefix(string(env.Data), `"`), "raw data %s", env.Data)

	var total decimal.Decimal
	require.NoError(t, json.Unmarshal(env.Data, &total))
	assert.True(t, total.Equal(decimal.RequireFromString("30.00")), "got %s", total)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/merchant/M1/total?status=FAILED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &total))
	assert.True(t, total.Equal(decimal.RequireFromString("99.00")))

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/merchant/M2/total", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &total))
	assert.True(t, total.IsZero())
}

func TestDeleteTransaction(t *testing.T) {
	router, mem := newTestRouter(t)
	tx := seedTransaction(t, mem, "M1", "C1", "10.00", models.StatusCompleted)

	rec, env := doRequest(t, router, http.MethodDelete, "/api/v1/transactions/"+tx.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Transaction deleted successfully", env.Message)

	rec, env = doRequest(t, router, http.MethodGet, "/api/v1/transactions/"+tx.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = doRequest(t, router, http.MethodDelete, "/api/v1/transactions/"+tx.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
