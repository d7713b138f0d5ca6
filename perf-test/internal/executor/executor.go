package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Executor drives the ledger API's HTTP surface: account creation, balance
// reads and transfers, each request carrying the bearer token and, for
// transfers, the Idempotency-Key the API requires.
type Executor struct {
	client  *http.Client
	baseURL string
	token   string
}

func New(baseURL, token string) *Executor {
	return &Executor{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: 100,
				MaxConnsPerHost:     100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		token:   token,
	}
}

func (e *Executor) CreateAccount(ctx context.Context, userID, currency string, initialBalance float64) (string, error) {
	payload := map[string]any{
		"user_id":  userID,
		"currency": currency,
	}
	if initialBalance > 0 {
		payload["initial_balance"] = formatAmount(initialBalance)
	}

	respBody, err := e.post(ctx, "/accounts", "", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		AccountID string `json:"AccountID"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse create account response: %w", err)
	}
	return result.AccountID, nil
}

func (e *Executor) Transfer(ctx context.Context, fromID, toID, currency string, amount float64) error {
	payload := map[string]any{
		"from_account_id": fromID,
		"to_account_id":   toID,
		"amount":          formatAmount(amount),
		"currency":        currency,
	}
	_, err := e.post(ctx, "/transfers", idempotencyKey(), payload)
	return err
}

func (e *Executor) GetBalance(ctx context.Context, accountID string) (string, error) {
	resp, err := e.get(ctx, fmt.Sprintf("/accounts/%s/balance", accountID))
	if err != nil {
		return "", err
	}

	var result struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", fmt.Errorf("failed to parse balance response: %w", err)
	}
	return result.Balance, nil
}

// formatAmount renders a float64 dollar amount as an exact two-decimal
// string; the API rejects anything that doesn't parse as a decimal.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func idempotencyKey() string {
	return fmt.Sprintf("perf-%d-%d", time.Now().UnixNano(), rand.Int63())
}

func (e *Executor) post(ctx context.Context, path, idemKey string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("X-Load-Test", "true")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var respBody bytes.Buffer
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody.String())
	}

	return respBody.Bytes(), nil
}

func (e *Executor) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("X-Load-Test", "true")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var respBody bytes.Buffer
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody.String())
	}

	return respBody.Bytes(), nil
}
