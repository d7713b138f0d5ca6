package handlers

import (
	"net/http"

	"ledger-api/internal/api/middleware"
	"ledger-api/internal/ledger"
	"ledger-api/internal/logging"
	"ledger-api/internal/metrics"
	"ledger-api/internal/money"

	"github.com/gin-gonic/gin"
)

// MakeCreateAccountHandler handles POST /accounts, closing over its
// dependencies to create an account with a currency and an optional
// initial balance.
func MakeCreateAccountHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID         string  `json:"user_id" binding:"required"`
			Currency       string  `json:"currency" binding:"required"`
			InitialBalance *string `json:"initial_balance"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		var initial *money.Money
		if req.InitialBalance != nil {
			m, err := money.NewFromString(*req.InitialBalance, req.Currency)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid initial_balance: " + err.Error()})
				return
			}
			initial = &m
		}

		uow, err := deps.Store().BeginUnitOfWork(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		acc, err := deps.Accounts().Create(c.Request.Context(), uow, req.UserID, req.Currency, initial)
		if err != nil {
			_ = uow.Rollback(c.Request.Context())
			writeError(c, err)
			return
		}
		if err := uow.Commit(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		metrics.AccountsCreatedTotal.Inc()
		logging.Info("account created", map[string]any{"account_id": acc.AccountID, "user_id": acc.UserID})
		deps.Events().PublishAccountCreated(c.Request.Context(), *acc)

		c.JSON(http.StatusCreated, acc)
	}
}

// MakeGetBalanceHandler handles GET /accounts/:id/balance.
func MakeGetBalanceHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		balance, err := deps.Accounts().GetBalance(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"account_id": id,
			"balance":    balance.String(),
			"currency":   balance.Currency(),
		})
	}
}

// MakeGetAccountHandler handles GET /accounts/:id.
func MakeGetAccountHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		acc, err := deps.Accounts().Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

// MakeListAccountsHandler handles GET /users/:userId/accounts.
func MakeListAccountsHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		var currency *string
		if v := c.Query("currency"); v != "" {
			currency = &v
		}
		accs, err := deps.Accounts().ListByUser(c.Request.Context(), userID, currency)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accs})
	}
}

func actorFromRequest(c *gin.Context) ledger.ActorMetadata {
	return ledger.ActorMetadata{
		UserID:    middleware.ActorUserID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
