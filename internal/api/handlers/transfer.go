package handlers

import (
	"net/http"

	"ledger-api/internal/ledger"
	"ledger-api/internal/logging"
	"ledger-api/internal/money"

	"github.com/gin-gonic/gin"
)

// MakeTransferHandler handles POST /transfers, closing over its
// dependencies to run the double-entry transfer algorithm against an
// exact decimal Amount with a mandatory Idempotency-Key header.
func MakeTransferHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FromAccountID string `json:"from_account_id" binding:"required"`
			ToAccountID   string `json:"to_account_id" binding:"required"`
			Amount        string `json:"amount" binding:"required"`
			Currency      string `json:"currency" binding:"required"`
			Description   string `json:"description"`
			ReferenceID   string `json:"reference_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key header is required"})
			return
		}

		if req.FromAccountID == req.ToAccountID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from_account_id and to_account_id must differ"})
			return
		}

		amount, err := money.NewFromString(req.Amount, req.Currency)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + err.Error()})
			return
		}

		tx, err := deps.Payments().Transfer(c.Request.Context(), ledger.TransferInput{
			FromAccountID:  req.FromAccountID,
			ToAccountID:    req.ToAccountID,
			Amount:         amount,
			IdempotencyKey: idempotencyKey,
			Description:    req.Description,
			ReferenceID:    req.ReferenceID,
			Actor:          actorFromRequest(c),
		})
		if err != nil {
			writeError(c, err)
			return
		}

		logging.Info("transfer completed", map[string]any{
			"transaction_id": tx.TransactionID,
			"from":           req.FromAccountID,
			"to":             req.ToAccountID,
			"amount":         tx.Amount.String(),
		})
		c.JSON(http.StatusCreated, tx)
	}
}

// MakeReverseHandler handles POST /transactions/:id/reversals.
func MakeReverseHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		original := c.Param("id")

		var req struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key header is required"})
			return
		}

		tx, err := deps.Payments().Reverse(c.Request.Context(), ledger.ReversalInput{
			OriginalTransactionID: original,
			Reason:                req.Reason,
			IdempotencyKey:        idempotencyKey,
			Actor:                 actorFromRequest(c),
		})
		if err != nil {
			writeError(c, err)
			return
		}

		logging.Info("reversal completed", map[string]any{
			"original_transaction_id": original,
			"reversal_transaction_id": tx.TransactionID,
		})
		c.JSON(http.StatusCreated, tx)
	}
}
