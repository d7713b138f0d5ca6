package routes

import (
	"net/http"

	"ledger-api/internal/api/handlers"
	"ledger-api/internal/api/middleware"
	"ledger-api/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the accounts/transfers/reversals/transactions
// surface with the container dependencies. Middleware runs
// metrics first, then CORS, rate limiting, and auth ahead of any handler.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, deps handlers.HandlerDependencies) {
	router.Use(middleware.Prometheus())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimit(cfg))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	api.Use(middleware.StubAuth(cfg))

	api.POST("/accounts", handlers.MakeCreateAccountHandler(deps))
	api.GET("/accounts/:id", handlers.MakeGetAccountHandler(deps))
	api.GET("/accounts/:id/balance", handlers.MakeGetBalanceHandler(deps))
	api.GET("/accounts/:id/transactions", handlers.MakeGetAccountTransactionsHandler(deps))
	api.GET("/users/:userId/accounts", handlers.MakeListAccountsHandler(deps))

	api.POST("/transfers", handlers.MakeTransferHandler(deps))
	api.GET("/transactions/:id", handlers.MakeGetTransactionHandler(deps))
	api.POST("/transactions/:id/reversals", handlers.MakeReverseHandler(deps))
}
