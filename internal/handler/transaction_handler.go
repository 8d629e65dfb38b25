package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"general-ledger/internal/models"
	"general-ledger/internal/service"
)

type TransactionHandler struct {
	service *service.LedgerService
	logger  *zap.Logger
}

func NewTransactionHandler(service *service.LedgerService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{service: service, logger: logger}
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.service.CreateTransaction(c.Request.Context(), entityID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	txn, err := h.service.GetTransaction(c.Request.Context(), entityID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandler) List(c *gin.Context) {
	filter := models.TransactionFilter{
		EntityID:  entityID(c),
		AccountID: c.Query("account_id"),
		Status:    models.TransactionStatus(c.Query("status")),
		Search:    c.Query("search"),
	}
	if from, ok := parseDate(c.Query("from")); ok {
		filter.From = &from
	}
	if to, ok := parseDate(c.Query("to")); ok {
		filter.To = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	page, err := h.service.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if page.Transactions == nil {
		page.Transactions = []*models.Transaction{}
	}
	c.JSON(http.StatusOK, page)
}

func (h *TransactionHandler) Post(c *gin.Context) {
	txn, err := h.service.PostTransaction(c.Request.Context(), entityID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandler) Reverse(c *gin.Context) {
	reversal, err := h.service.ReverseTransaction(c.Request.Context(), entityID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, reversal)
}

func (h *TransactionHandler) Cancel(c *gin.Context) {
	if err := h.service.CancelTransaction(c.Request.Context(), entityID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *TransactionHandler) Entries(c *gin.Context) {
	txn, err := h.service.GetTransaction(c.Request.Context(), entityID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_id": txn.ID, "entries": txn.Entries})
}

func (h *TransactionHandler) Balance(c *gin.Context) {
	var asOf *time.Time
	if t, ok := parseDate(c.Query("as_of")); ok {
		asOf = &t
	}

	balance, err := h.service.GetBalance(c.Request.Context(), entityID(c), c.Param("account"), asOf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *TransactionHandler) VerifyBalance(c *gin.Context) {
	stored, computed, consistent, err := h.service.VerifyBalance(c.Request.Context(), entityID(c), c.Param("account"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stored":     stored,
		"computed":   computed,
		"consistent": consistent,
	})
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
