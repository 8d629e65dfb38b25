package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"general-ledger/internal/models"
)

// respondError maps domain errors onto HTTP status codes. Raw database or
// internal errors are logged and replaced with a generic message so they
// never leak to the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateCodeError
		children   *models.HasActiveChildrenError
		unbalanced *models.UnbalancedTransactionError
		badState   *models.InvalidStateTransitionError
		equation   *models.AccountingEquationError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &unbalanced):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": unbalanced.Error(),
			"delta": unbalanced.Delta(),
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": duplicate.Error()})
	case errors.As(err, &children):
		c.JSON(http.StatusConflict, gin.H{"error": children.Error()})
	case errors.As(err, &badState):
		c.JSON(http.StatusConflict, gin.H{"error": badState.Error()})
	case errors.As(err, &equation):
		// Data corruption upstream: surface loudly, never render wrong totals.
		log.Error("accounting equation violated", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": equation.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
