package handlers

import (
	"net/http"

	"ledger-api/internal/ledger"

	"github.com/gin-gonic/gin"
)

// writeError maps a ledger.Error to an HTTP response, the one place in this
// codebase where the error taxonomy is translated into transport status
// codes — the ledger package itself never imports net/http.
func writeError(c *gin.Context, err error) {
	le, ok := err.(*ledger.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch le.Kind {
	case ledger.KindInvalidAmount, ledger.KindCurrencyMismatch, ledger.KindInsufficientFunds:
		status = http.StatusBadRequest
	case ledger.KindInvalidAccount:
		status = http.StatusNotFound
	case ledger.KindAccountSuspended:
		status = http.StatusForbidden
	case ledger.KindDuplicateTransaction:
		status = http.StatusConflict
	case ledger.KindConcurrentModification:
		status = http.StatusConflict
	case ledger.KindInternal:
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": le.Error(), "kind": string(le.Kind)}
	if le.Kind == ledger.KindDuplicateTransaction {
		body["transaction_id"] = le.TransactionID
	}
	c.JSON(status, body)
}
