package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"
)

type OperationType string

const (
	OpTransfer OperationType = "transfer"
	OpBalance  OperationType = "balance"
)

// Scenario describes a load profile against the ledger API: how many
// accounts to provision, how many transfer/balance operations to drive
// against them, and the amount range those transfers draw from.
type Scenario struct {
	Name             string                    `json:"name"`
	Description      string                    `json:"description"`
	Accounts         int                       `json:"accounts"`
	Currency         string                    `json:"currency"`
	TargetOperations int64                     `json:"target_operations"`
	Operations       []Operation               `json:"operations"`
	Distribution     map[OperationType]float64 `json:"distribution"`
	InitialBalance   float64                   `json:"initial_balance"`
	MinAmount        float64                   `json:"min_amount"`
	MaxAmount        float64                   `json:"max_amount"`
	ThinkTime        time.Duration             `json:"think_time"`
}

type Operation struct {
	Type      OperationType `json:"type"`
	AccountID string        `json:"account_id,omitempty"`
	FromID    string        `json:"from_id,omitempty"`
	ToID      string        `json:"to_id,omitempty"`
	Amount    float64       `json:"amount,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if s.Accounts <= 0 {
		return fmt.Errorf("accounts must be positive")
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}

	total := 0.0
	for _, weight := range s.Distribution {
		total += weight
	}

	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("distribution weights must sum to 1.0")
	}

	return nil
}

func (s *Scenario) GenerateOperation(accountIDs []string) Operation {
	r := rand.Float64()
	cumulative := 0.0

	for opType, weight := range s.Distribution {
		cumulative += weight
		if r <= cumulative {
			return s.createOperation(opType, accountIDs)
		}
	}

	return s.createOperation(OpBalance, accountIDs)
}

func (s *Scenario) createOperation(opType OperationType, accountIDs []string) Operation {
	op := Operation{Type: opType}

	switch opType {
	case OpTransfer:
		fromIdx := rand.Intn(len(accountIDs))
		toIdx := rand.Intn(len(accountIDs))
		for toIdx == fromIdx && len(accountIDs) > 1 {
			toIdx = rand.Intn(len(accountIDs))
		}
		op.FromID = accountIDs[fromIdx]
		op.ToID = accountIDs[toIdx]
		op.Amount = s.generateValidAmount()
	case OpBalance:
		op.AccountID = accountIDs[rand.Intn(len(accountIDs))]
	}

	return op
}

// generateValidAmount returns a dollar amount with exactly two decimal
// places, built from a random cent count so the executor never has to
// round a float before formatting it into a decimal string.
func (s *Scenario) generateValidAmount() float64 {
	minCents := int(s.MinAmount * 100)
	maxCents := int(s.MaxAmount * 100)
	if minCents < 1 {
		minCents = 1
	}
	cents := minCents + rand.Intn(maxCents-minCents+1)
	return float64(cents) / 100
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:        "Default Ledger Load Test",
		Description: "Balanced mix of transfers and balance reads",
		Accounts:    1000,
		Currency:    "USD",
		Distribution: map[OperationType]float64{
			OpTransfer: 0.60,
			OpBalance:  0.40,
		},
		InitialBalance: 1000.00,
		MinAmount:      1.00,
		MaxAmount:      10.00,
		ThinkTime:      10 * time.Millisecond,
	}
}

func HighConcurrencyScenario() *Scenario {
	return &Scenario{
		Name:        "High Concurrency Transfer Test",
		Description: "Heavy reciprocal transfer load to test lock-ordering deadlock prevention",
		Accounts:    100,
		Currency:    "USD",
		Distribution: map[OperationType]float64{
			OpTransfer: 0.90,
			OpBalance:  0.10,
		},
		InitialBalance: 500.00,
		MinAmount:      1.00,
		MaxAmount:      50.00,
		ThinkTime:      1 * time.Millisecond,
	}
}

func ReadHeavyScenario() *Scenario {
	return &Scenario{
		Name:        "Read Heavy Load Test",
		Description: "Mostly balance checks with occasional transfers",
		Accounts:    5000,
		Currency:    "USD",
		Distribution: map[OperationType]float64{
			OpTransfer: 0.20,
			OpBalance:  0.80,
		},
		InitialBalance: 100.00,
		MinAmount:      0.50,
		MaxAmount:      5.00,
		ThinkTime:      5 * time.Millisecond,
	}
}
