package account

import (
	"encoding/json"
	"net/http"
	"testing"

	"ledger-api/test/integration/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferSuccess(t *testing.T) {
	router := testenv.NewRouter(t)

	from := testenv.CreateAccount(t, router, "from-user", "USD", "10.00")
	to := testenv.CreateAccount(t, router, "to-user", "USD", "")

	resp := testenv.Transfer(t, router, from, to, "3.00", "USD", "transfer-success-1")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.NotEmpty(t, result["TransactionID"])
	assert.Equal(t, "COMPLETED", result["Status"])

	assert.Equal(t, "7.00", testenv.GetBalance(t, router, from))
	assert.Equal(t, "3.00", testenv.GetBalance(t, router, to))
}

func TestTransferNonexistentAccount(t *testing.T) {
	router := testenv.NewRouter(t)

	from := testenv.CreateAccount(t, router, "lone-user", "USD", "1.00")

	resp := testenv.Transfer(t, router, from, "00000000-0000-0000-0000-000000000000", "0.50", "USD", "transfer-missing-dest")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	testenv.AssertHasError(t, result)

	assert.Equal(t, "1.00", testenv.GetBalance(t, router, from), "source account balance should remain unchanged after a failed transfer")
}

func TestTransferInsufficientFunds(t *testing.T) {
	router := testenv.NewRouter(t)

	from := testenv.CreateAccount(t, router, "poor-user", "USD", "5.00")
	to := testenv.CreateAccount(t, router, "rich-user", "USD", "")

	resp := testenv.Transfer(t, router, from, to, "100.00", "USD", "transfer-insufficient-1")
	require.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Equal(t, "5.00", testenv.GetBalance(t, router, from))
	assert.Equal(t, "0.00", testenv.GetBalance(t, router, to))
}

func TestDuplicateTransferWithSameIdempotencyKeyReturnsOriginal(t *testing.T) {
	router := testenv.NewRouter(t)

	from := testenv.CreateAccount(t, router, "dup-from", "USD", "50.00")
	to := testenv.CreateAccount(t, router, "dup-to", "USD", "")

	first := testenv.Transfer(t, router, from, to, "10.00", "USD", "transfer-dup-key")
	require.Equal(t, http.StatusCreated, first.Code)
	var firstResult map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResult))

	second := testenv.Transfer(t, router, from, to, "10.00", "USD", "transfer-dup-key")
	require.Equal(t, http.StatusConflict, second.Code)
	var secondResult map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResult))

	assert.Equal(t, firstResult["TransactionID"], secondResult["transaction_id"])
	assert.Equal(t, "40.00", testenv.GetBalance(t, router, from), "replayed transfer must not move funds twice")
}
