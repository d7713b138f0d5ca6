package account

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger-api/test/integration/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	router := testenv.NewRouter(t)

	accountID := testenv.CreateAccount(t, router, "alice", "USD", "")

	assert.NotEmpty(t, accountID)
	balance := testenv.GetBalance(t, router, accountID)
	assert.Equal(t, "0.00", balance, "new account should have zero balance")
}

func TestCreateAccountWithInitialBalance(t *testing.T) {
	router := testenv.NewRouter(t)

	accountID := testenv.CreateAccount(t, router, "bob", "USD", "150.00")

	balance := testenv.GetBalance(t, router, accountID)
	assert.Equal(t, "150.00", balance)
}

func TestCreateAccountMissingUserID(t *testing.T) {
	router := testenv.NewRouter(t)

	body, _ := json.Marshal(map[string]string{"currency": "USD"})
	req := httptest.NewRequest("POST", "/accounts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-actor")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	testenv.AssertHasError(t, result)
}

func TestCreateAccountInvalidInitialBalance(t *testing.T) {
	router := testenv.NewRouter(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":         "carol",
		"currency":        "USD",
		"initial_balance": "not-a-number",
	})
	req := httptest.NewRequest("POST", "/accounts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-actor")
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}
