package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"general-ledger/internal/models"
	"general-ledger/internal/service"
)

// DefaultEntityID scopes requests that do not carry an X-Entity-ID header.
const DefaultEntityID = "default"

func entityID(c *gin.Context) string {
	if id := c.GetHeader("X-Entity-ID"); id != "" {
		return id
	}
	return DefaultEntityID
}

type AccountHandler struct {
	service *service.AccountService
	logger  *zap.Logger
}

func NewAccountHandler(service *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: logger}
}

func (h *AccountHandler) Create(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.service.Create(c.Request.Context(), entityID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.service.Get(c.Request.Context(), entityID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) List(c *gin.Context) {
	filter := models.AccountFilter{
		EntityID: entityID(c),
		Type:     models.AccountType(c.Query("type")),
		Search:   c.Query("search"),
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}

	accounts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *AccountHandler) Update(c *gin.Context) {
	var patch models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.service.Update(c.Request.Context(), entityID(c), c.Param("id"), &patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *AccountHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), entityID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (h *AccountHandler) Children(c *gin.Context) {
	children, err := h.service.Children(c.Request.Context(), entityID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if children == nil {
		children = []*models.Account{}
	}
	c.JSON(http.StatusOK, gin.H{"accounts": children})
}

func (h *AccountHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), entityID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
