package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"general-ledger/pkg/middleware"
)

// NewRouter wires the full API surface.
func NewRouter(accounts *AccountHandler, transactions *TransactionHandler, reports *ReportHandler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		acc := v1.Group("/accounts")
		{
			acc.POST("", accounts.Create)
			acc.GET("", accounts.List)
			acc.GET("/stats", accounts.Stats)
			acc.GET("/:id", accounts.Get)
			acc.PUT("/:id", accounts.Update)
			acc.DELETE("/:id", accounts.Deactivate)
			acc.GET("/:id/children", accounts.Children)
		}

		txn := v1.Group("/transactions")
		{
			txn.POST("", transactions.Create)
			txn.GET("", transactions.List)
			txn.GET("/:id", transactions.Get)
			txn.GET("/:id/entries", transactions.Entries)
			txn.POST("/:id/post", transactions.Post)
			txn.POST("/:id/reverse", transactions.Reverse)
			txn.POST("/:id/cancel", transactions.Cancel)
		}

		ledger := v1.Group("/ledger")
		{
			ledger.GET("/balance/:account", transactions.Balance)
			ledger.GET("/balance/:account/verify", transactions.VerifyBalance)
		}

		rep := v1.Group("/reports")
		{
			rep.GET("/trial-balance", reports.TrialBalance)
			rep.GET("/balance-sheet", reports.BalanceSheet)
			rep.GET("/income-statement", reports.IncomeStatement)
			rep.GET("/cash-flow", reports.CashFlow)
			rep.POST("/reconcile", reports.Reconcile)
		}
	}

	return router
}
