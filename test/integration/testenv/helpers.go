// Package testenv's helpers drive the HTTP surface directly
// (httptest.NewRequest + router.ServeHTTP against a *gin.Engine) for the
// account/transfer/reversal request bodies and the mandatory
// bearer-token and Idempotency-Key headers.
package testenv

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBearerToken = "test-actor"

func authedRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testBearerToken)
	return req
}

// CreateAccount opens an account for userID in currency with an optional
// initial balance (empty string omits it) and returns the new account id.
func CreateAccount(t *testing.T, r *gin.Engine, userID, currency, initialBalance string) string {
	t.Helper()
	body := map[string]any{"user_id": userID, "currency": currency}
	if initialBalance != "" {
		body["initial_balance"] = initialBalance
	}
	jsonBody, _ := json.Marshal(body)

	req := authedRequest("POST", "/accounts", jsonBody)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, "create account failed: %s", resp.Body.String())

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	return result["AccountID"].(string)
}

// GetBalance returns the account's balance as a decimal string.
func GetBalance(t *testing.T, r *gin.Engine, accountID string) string {
	t.Helper()
	req := authedRequest("GET", "/accounts/"+accountID+"/balance", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, "get balance failed: %s", resp.Body.String())

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	return result["balance"].(string)
}

// Transfer posts a transfer request under the given idempotency key and
// returns the HTTP response for the caller to assert on.
func Transfer(t *testing.T, r *gin.Engine, from, to, amount, currency, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"from_account_id": from,
		"to_account_id":   to,
		"amount":          amount,
		"currency":        currency,
	})
	req := authedRequest("POST", "/transfers", body)
	req.Header.Set("Idempotency-Key", idempotencyKey)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

// Reverse posts a reversal request for an existing transaction.
func Reverse(t *testing.T, r *gin.Engine, transactionID, reason, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"reason": reason})
	req := authedRequest("POST", "/transactions/"+transactionID+"/reversals", body)
	req.Header.Set("Idempotency-Key", idempotencyKey)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

// AssertHasError checks the response body carries a non-empty "error" field.
func AssertHasError(t *testing.T, result map[string]any) {
	t.Helper()
	errMsg, ok := result["error"]
	if !ok {
		t.Fatal("no error message found in response")
	}
	assert.NotEmpty(t, errMsg, "expected error message to be present")
}
