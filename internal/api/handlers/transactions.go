package handlers

import (
	"net/http"
	"strconv"
	"time"

	"ledger-api/internal/ledger"

	"github.com/gin-gonic/gin"
)

// MakeGetTransactionHandler handles GET /transactions/:id.
func MakeGetTransactionHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		tx, err := deps.Payments().GetTransaction(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		if tx == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}

// MakeGetAccountTransactionsHandler handles GET /accounts/:id/transactions,
// paginated with the honest total_count the postgres store computes across
// every matching row, not just the page length.
func MakeGetAccountTransactionsHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.Param("id")

		limit := 20
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		offset := 0
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				offset = n
			}
		}

		start := parseDateParam(c.Query("start_date"))
		end := parseDateParam(c.Query("end_date"))

		txs, total, err := deps.Payments().GetAccountTransactions(c.Request.Context(), accountID, ledger.TransactionFilter{
			Limit:  limit,
			Offset: offset,
			Start:  start,
			End:    end,
		})
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"transactions": txs,
			"total_count":  total,
			"limit":        limit,
			"offset":       offset,
		})
	}
}

// parseDateParam accepts either an RFC3339 timestamp or a bare
// YYYY-MM-DD date. An empty or unparseable value yields a nil bound,
// which leaves that side of the range filter unconstrained.
func parseDateParam(v string) *time.Time {
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return &t
	}
	return nil
}
