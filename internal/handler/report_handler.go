package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"general-ledger/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

func (h *ReportHandler) TrialBalance(c *gin.Context) {
	asOf, ok := parseDate(c.Query("as_of"))
	if !ok {
		asOf = time.Now()
	}

	tb, err := h.service.TrialBalance(c.Request.Context(), entityID(c), asOf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tb)
}

func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	asOf, ok := parseDate(c.Query("as_of"))
	if !ok {
		asOf = time.Now()
	}

	bs, err := h.service.BalanceSheet(c.Request.Context(), entityID(c), asOf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bs)
}

func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	from, to, err := periodParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	is, err := h.service.IncomeStatement(c.Request.Context(), entityID(c), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, is)
}

func (h *ReportHandler) CashFlow(c *gin.Context) {
	from, to, err := periodParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cf, err := h.service.CashFlow(c.Request.Context(), entityID(c), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cf)
}

func (h *ReportHandler) Reconcile(c *gin.Context) {
	var req struct {
		StartDate string `json:"start_date" binding:"required"`
		EndDate   string `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, ok := parseDate(req.StartDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	to, ok := parseDate(req.EndDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	report, err := h.service.Reconcile(c.Request.Context(), entityID(c), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type periodError string

func (e periodError) Error() string { return string(e) }

func periodParams(c *gin.Context) (time.Time, time.Time, error) {
	from, ok := parseDate(c.Query("from"))
	if !ok {
		return time.Time{}, time.Time{}, periodError("from date is required (YYYY-MM-DD)")
	}
	to, ok := parseDate(c.Query("to"))
	if !ok {
		return time.Time{}, time.Time{}, periodError("to date is required (YYYY-MM-DD)")
	}
	return from, to, nil
}
