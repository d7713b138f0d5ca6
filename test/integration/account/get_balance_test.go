package account

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger-api/test/integration/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalance(t *testing.T) {
	router := testenv.NewRouter(t)

	accountID := testenv.CreateAccount(t, router, "nico", "USD", "75.00")

	balance := testenv.GetBalance(t, router, accountID)
	assert.Equal(t, "75.00", balance)
}

func TestGetBalanceNonexistentAccount(t *testing.T) {
	router := testenv.NewRouter(t)

	req := httptest.NewRequest("GET", "/accounts/does-not-exist/balance", nil)
	req.Header.Set("Authorization", "Bearer test-actor")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	testenv.AssertHasError(t, result)
}
