package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"payment-transactions-server/internal/models"
	"payment-transactions-server/internal/services"
	"payment-transactions-server/internal/store"
	"payment-transactions-server/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	transactions *services.TransactionService
}

type CreateTransactionRequest struct {
	MerchantID    string          `json:"merchantId" binding:"required"`
	CustomerID    string          `json:"customerId" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
	Description   *string         `json:"description"`
}

// validate covers what binding tags cannot: blank-after-trim identifiers,
// the positive amount, and the 3-character currency code.
func (r CreateTransactionRequest) validate() error {
	if strings.TrimSpace(r.MerchantID) == "" {
		return errors.New("merchantId must not be blank")
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		return errors.New("customerId must not be blank")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if len(strings.TrimSpace(r.Currency)) != 3 {
		return errors.New("currency must be a 3-character code")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return errors.New("paymentMethod must not be blank")
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func NewTransactionHandler(transactions *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	created, err := h.transactions.Create(c.Request.Context(), services.CreateTransactionInput{
		MerchantID:    req.MerchantID,
		CustomerID:    req.CustomerID,
		Amount:        req.Amount,
		Currency:      strings.TrimSpace(req.Currency),
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
	})
	if err != nil {
		utils.RespondError(c, fmt.Errorf("Failed to create transaction: %w", err))
		return
	}

	utils.RespondCreated(c, "Transaction created successfully", created)
}

func (h *TransactionHandler) GetByID(c *gin.Context) {
	item, err := h.transactions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondOK(c, item)
}

func (h *TransactionHandler) List(c *gin.Context) {
	page, err := h.transactions.ListAll(c.Request.Context(), parsePageRequest(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, page)
}

func (h *TransactionHandler) ListByMerchant(c *gin.Context) {
	merchantID := c.Param("merchantId")

	if hasPagingParams(c) {
		page, err := h.transactions.ListByMerchantPage(c.Request.Context(), merchantID, parsePageRequest(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, page)
		return
	}

	items, err := h.transactions.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, listOrEmpty(items))
}

func (h *TransactionHandler) ListByCustomer(c *gin.Context) {
	customerID := c.Param("customerId")

	if hasPagingParams(c) {
		page, err := h.transactions.ListByCustomerPage(c.Request.Context(), customerID, parsePageRequest(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, page)
		return
	}

	items, err := h.transactions.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, listOrEmpty(items))
}

func (h *TransactionHandler) ListByStatus(c *gin.Context) {
	status, err := models.ParseStatus(c.Param("status"))
	if err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if hasPagingParams(c) {
		page, err := h.transactions.ListByStatusPage(c.Request.Context(), status, parsePageRequest(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, page)
		return
	}

	items, err := h.transactions.ListByStatus(c.Request.Context(), status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, listOrEmpty(items))
}

func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	updated, err := h.transactions.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	utils.RespondOKWithMessage(c, "Status updated successfully", updated)
}

func (h *TransactionHandler) ListByDateRange(c *gin.Context) {
	start, err := parseDateTime(c.Query("startDate"))
	if err != nil {
		utils.RespondValidationError(c, "startDate must be an ISO-8601 timestamp")
		return
	}
	end, err := parseDateTime(c.Query("endDate"))
	if err != nil {
		utils.RespondValidationError(c, "endDate must be an ISO-8601 timestamp")
		return
	}

	items, err := h.transactions.ListByDateRange(c.Request.Context(), start, end)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOK(c, listOrEmpty(items))
}

func (h *TransactionHandler) TotalByMerchant(c *gin.Context) {
	status := models.StatusCompleted
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			utils.RespondValidationError(c, err.Error())
			return
		}
		status = parsed
	}

	total, err := h.transactions.TotalAmount(c.Request.Context(), c.Param("merchantId"), status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondOKWithMessage(c, "Total amount calculated", total)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	deleted, err := h.transactions.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !deleted {
		utils.RespondError(c, utils.NewAppError(http.StatusNotFound, "Transaction not found"))
		return
	}
	utils.RespondOKWithMessage(c, "Transaction deleted successfully", nil)
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(c, utils.NewAppError(http.StatusNotFound, "Transaction not found"))
		return
	}
	utils.RespondError(c, err)
}

func parsePageRequest(c *gin.Context) store.PageRequest {
	req := store.DefaultPageRequest()
	req.Page = parseIntDefault(c.Query("page"), req.Page)
	req.Size = parseIntDefault(c.Query("size"), req.Size)
	if sortBy := c.Query("sortBy"); sortBy != "" {
		req.SortBy = sortBy
	}
	if sortDir := c.Query("sortDir"); sortDir != "" {
		req.SortDir = sortDir
	}
	return req.Normalize()
}

func hasPagingParams(c *gin.Context) bool {
	for _, key := range []string{"page", "size", "sortBy", "sortDir"} {
		if _, ok := c.GetQuery(key); ok {
			return true
		}
	}
	return false
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

func listOrEmpty(items []models.Transaction) []models.Transaction {
	if items == nil {
		return []models.Transaction{}
	}
	return items
}
