// Package events publishes ledger domain events to Kafka, best-effort.
// It implements the narrow ledger.EventPublisher contract the Payment
// Engine consumes, covering account creation, transfer, and reversal
// events. Publish failures are logged, never propagated: a caller must
// never fail a committed transfer because the event bus is down.
package events

import (
	"context"
	"time"

	"ledger-api/internal/events/kafka"
	"ledger-api/internal/ledger"
	"ledger-api/internal/logging"
)

// AccountCreatedEvent is the wire shape published on account creation.
type AccountCreatedEvent struct {
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

// TransferCompletedEvent is the wire shape published when a transfer
// commits, carrying UUID account ids and a decimal Money amount.
type TransferCompletedEvent struct {
	TransactionID string    `json:"transaction_id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// TransferReversedEvent is the wire shape published when a transfer is
// reversed.
type TransferReversedEvent struct {
	OriginalTransactionID string    `json:"original_transaction_id"`
	ReversalTransactionID string    `json:"reversal_transaction_id"`
	Amount                string    `json:"amount"`
	Currency              string    `json:"currency"`
	Timestamp             time.Time `json:"timestamp"`
}

// Publisher publishes ledger domain events over Kafka.
type Publisher struct {
	producer *kafka.Producer
}

// NewPublisher wraps an already-constructed kafka.Producer.
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

// PublishAccountCreated publishes an account-created event.
func (p *Publisher) PublishAccountCreated(ctx context.Context, acc ledger.Account) {
	event := AccountCreatedEvent{
		AccountID: acc.AccountID,
		UserID:    acc.UserID,
		Currency:  acc.Currency,
		Timestamp: time.Now().UTC(),
	}
	if err := p.producer.PublishEvent(kafka.TopicAccountCreated, acc.AccountID, event); err != nil {
		logging.Error("failed to publish account created event", err, map[string]any{"account_id": acc.AccountID})
	}
}

// PublishTransferCompleted satisfies ledger.EventPublisher.
func (p *Publisher) PublishTransferCompleted(ctx context.Context, tx ledger.Transaction) {
	event := TransferCompletedEvent{
		TransactionID: tx.TransactionID,
		FromAccountID: derefOr(tx.FromAccountID, ""),
		ToAccountID:   derefOr(tx.ToAccountID, ""),
		Amount:        tx.Amount.String(),
		Currency:      tx.Amount.Currency(),
		Timestamp:     time.Now().UTC(),
	}
	key := event.FromAccountID + "-" + event.ToAccountID
	if err := p.producer.PublishEvent(kafka.TopicTransferCompleted, key, event); err != nil {
		logging.Error("failed to publish transfer completed event", err, map[string]any{"transaction_id": tx.TransactionID})
	}
}

// PublishTransferReversed satisfies ledger.EventPublisher.
func (p *Publisher) PublishTransferReversed(ctx context.Context, original, reversal ledger.Transaction) {
	event := TransferReversedEvent{
		OriginalTransactionID: original.TransactionID,
		ReversalTransactionID: reversal.TransactionID,
		Amount:                reversal.Amount.String(),
		Currency:              reversal.Amount.Currency(),
		Timestamp:             time.Now().UTC(),
	}
	if err := p.producer.PublishEvent(kafka.TopicTransferReversed, original.TransactionID, event); err != nil {
		logging.Error("failed to publish transfer reversed event", err, map[string]any{"transaction_id": original.TransactionID})
	}
}

// Close releases the underlying Kafka producer.
func (p *Publisher) Close() error {
	return p.producer.Close()
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// NoOp is used when Kafka is disabled or unreachable at startup.
type NoOp struct{}

func (NoOp) PublishAccountCreated(context.Context, ledger.Account)                  {}
func (NoOp) PublishTransferCompleted(context.Context, ledger.Transaction)           {}
func (NoOp) PublishTransferReversed(context.Context, ledger.Transaction, ledger.Transaction) {}
func (NoOp) Close() error                                                          { return nil }
