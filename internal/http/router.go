package http

import (
	"log/slog"

	"payment-transactions-server/internal/config"
	"payment-transactions-server/internal/http/handlers"
	"payment-transactions-server/internal/http/middleware"
	"payment-transactions-server/internal/services"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Config    *config.Config
	TxService *services.TransactionService
	Logger    *slog.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))

	txHandler := handlers.NewTransactionHandler(deps.TxService)

	router.GET("/healthz", handlers.Health)

	transactions := router.Group("/api/v1/transactions")
	{
		transactions.POST("", txHandler.Create)
		transactions.GET("", txHandler.List)
		transactions.GET("/date-range", txHandler.ListByDateRange)
		transactions.GET("/merchant/:merchantId", txHandler.ListByMerchant)
		transactions.GET("/merchant/:merchantId/total", txHandler.TotalByMerchant)
		transactions.GET("/customer/:customerId", txHandler.ListByCustomer)
		transactions.GET("/status/:status", txHandler.ListByStatus)
		transactions.GET("/:id", txHandler.GetByID)
		transactions.PUT("/:id/status", txHandler.UpdateStatus)
		transactions.DELETE("/:id", txHandler.Delete)
	}

	return router
}
