package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"ledger-api/internal/logging"
	"ledger-api/internal/money"

	"github.com/google/uuid"
)

const (
	maxConcurrentModificationAttempts = 3
	minReversalReasonLength           = 5
)

// TransferInput is the Payment Engine's Transfer entry point payload.
type TransferInput struct {
	FromAccountID  string
	ToAccountID    string
	Amount         money.Money
	IdempotencyKey string
	Description    string
	ReferenceID    string
	Actor          ActorMetadata
}

// ReversalInput is the Reverse entry point payload.
type ReversalInput struct {
	OriginalTransactionID string
	Reason                string
	IdempotencyKey        string
	Actor                 ActorMetadata
}

// PaymentEngine orchestrates transfers and reversals: locking,
// validation, double-entry journaling, and the Transaction state machine.
// It makes no goroutines of its own — any fan-out is the caller's; a
// single transfer never spawns internal concurrency.
type PaymentEngine struct {
	store       Store
	accounts    *AccountService
	idempotency IdempotencyManager
	events      EventPublisher
	metrics     MetricsRecorder
}

// IdempotencyManager is the two-tier idempotency contract the engine
// consumes; internal/idempotency.Manager implements it.
type IdempotencyManager interface {
	Check(ctx context.Context, key string) (*IdempotencyRecord, bool)
	Store(ctx context.Context, uow UnitOfWork, key string, transactionID *string, responseData []byte, requestHash *string) error
}

// EventPublisher is the narrow outbound contract the engine uses to
// report completed operations. A no-op implementation is expected in
// tests; see internal/events.
type EventPublisher interface {
	PublishTransferCompleted(ctx context.Context, tx Transaction)
	PublishTransferReversed(ctx context.Context, original, reversal Transaction)
}

// MetricsRecorder is the narrow outbound contract for business metrics.
type MetricsRecorder interface {
	RecordTransfer(status string)
	RecordTransferAmount(amount float64)
	RecordReversal(status string)
}

// NewPaymentEngine wires the engine's collaborators. events and metrics
// may be no-op implementations (internal/events.NoOp, internal/metrics.NoOp).
func NewPaymentEngine(store Store, accounts *AccountService, idm IdempotencyManager, events EventPublisher, metrics MetricsRecorder) *PaymentEngine {
	return &PaymentEngine{store: store, accounts: accounts, idempotency: idm, events: events, metrics: metrics}
}

// Transfer executes the transfer algorithm end to end: validation,
// locking, balance mutation, journaling and idempotency recording.
func (e *PaymentEngine) Transfer(ctx context.Context, in TransferInput) (*Transaction, error) {
	return e.transfer(ctx, in, TransactionTransfer, nil)
}

// transfer is the shared implementation behind Transfer and the reversal
// leg of Reverse; txType distinguishes TRANSFER from REVERSAL in the
// persisted Transaction, and reversalOf, when non-nil, names the original
// transaction a REVERSAL links back to (written into its Description).
func (e *PaymentEngine) transfer(ctx context.Context, in TransferInput, txType TransactionType, reversalOf *string) (*Transaction, error) {
	// Step 1: idempotency check, outside any unit of work. A record counts
	// as a duplicate only when the transaction it names exists.
	if rec, ok := e.idempotency.Check(ctx, in.IdempotencyKey); ok && rec.TransactionID != nil {
		if _, err := e.store.GetTransaction(ctx, *rec.TransactionID); err == nil {
			return nil, ErrDuplicateTransaction(*rec.TransactionID)
		}
	}

	// Step 2: amount validation.
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount("transfer amount must be greater than zero")
	}

	var result *Transaction
	var lastErr error

	for attempt := 1; attempt <= maxConcurrentModificationAttempts; attempt++ {
		result, lastErr = e.attemptTransfer(ctx, in, txType, reversalOf)
		if lastErr == nil {
			e.recordSuccess(ctx, txType, in.Amount, result, reversalOf)
			return result, nil
		}

		if !errors.Is(lastErr, ErrUniqueViolation) {
			e.recordFailure(txType, lastErr)
			return nil, lastErr
		}

		// A unique-constraint hit on idempotency_key means a racer used
		// the same key concurrently: re-check (spec step 7 "A
		// unique-violation here converts to DuplicateTransaction").
		if rec, ok := e.idempotency.Check(ctx, in.IdempotencyKey); ok && rec.TransactionID != nil {
			return nil, ErrDuplicateTransaction(*rec.TransactionID)
		}

		if attempt < maxConcurrentModificationAttempts {
			jitter := time.Duration(rand.Intn(20)) * time.Millisecond
			time.Sleep(10*time.Millisecond + jitter)
		}
	}

	e.recordFailure(txType, lastErr)
	return nil, ErrConcurrentModification(lastErr)
}

func (e *PaymentEngine) attemptTransfer(ctx context.Context, in TransferInput, txType TransactionType, reversalOf *string) (*Transaction, error) {
	// Step 3: open unit of work, lock both accounts in ascending id order
	// regardless of transfer direction — this is what prevents AB/BA
	// deadlocks between reciprocal transfers.
	uow, err := e.store.BeginUnitOfWork(ctx)
	if err != nil {
		return nil, ErrInternal(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback(ctx)
		}
	}()

	firstID, secondID := in.FromAccountID, in.ToAccountID
	if strings.Compare(firstID, secondID) > 0 {
		firstID, secondID = secondID, firstID
	}

	first, err := e.accounts.GetForUpdate(ctx, uow, firstID)
	if err != nil {
		return nil, err
	}
	second, err := e.accounts.GetForUpdate(ctx, uow, secondID)
	if err != nil {
		return nil, err
	}

	var from, to *Account
	if first.AccountID == in.FromAccountID {
		from, to = first, second
	} else {
		from, to = second, first
	}

	// Step 4: currency consistency.
	if from.Currency != to.Currency || from.Currency != in.Amount.Currency() {
		return nil, ErrCurrencyMismatch(fmt.Sprintf("from=%s to=%s amount=%s", from.Currency, to.Currency, in.Amount.Currency()))
	}

	// Step 5: funds check.
	if sufficient, _ := from.Balance.GreaterThanOrEqual(in.Amount); !sufficient {
		return nil, ErrInsufficientFunds(from.AccountID)
	}

	// Step 6: compute new balances.
	newFromBalance, err := from.Balance.Sub(in.Amount)
	if err != nil {
		return nil, ErrInternal(err)
	}
	newToBalance, err := to.Balance.Add(in.Amount)
	if err != nil {
		return nil, ErrInternal(err)
	}

	// Step 7: create the PENDING transaction row.
	now := time.Now().UTC()
	description := in.Description
	if reversalOf != nil {
		description = strings.TrimSpace(fmt.Sprintf("%s (reversal of %s)", description, *reversalOf))
	}
	tx := Transaction{
		TransactionID:   uuid.NewString(),
		FromAccountID:   &from.AccountID,
		ToAccountID:     &to.AccountID,
		Amount:          in.Amount,
		TransactionType: txType,
		Status:          TransactionPending,
		IdempotencyKey:  in.IdempotencyKey,
		ReferenceID:     optionalStrPtr(in.ReferenceID),
		Description:     optionalStrPtr(description),
		CreatedAt:       now,
	}
	if err := e.store.CreateTransaction(ctx, uow, tx); err != nil {
		if errors.Is(err, ErrUniqueViolation) {
			return nil, ErrUniqueViolation
		}
		return nil, ErrInternal(err)
	}

	// Step 8: mutate balances.
	if err := e.accounts.UpdateBalance(ctx, uow, *from, newFromBalance, ActionTransferDebit, in.Actor); err != nil {
		return nil, err
	}
	if err := e.accounts.UpdateBalance(ctx, uow, *to, newToBalance, ActionTransferCredit, in.Actor); err != nil {
		return nil, err
	}

	// Step 9: double-entry journal.
	if err := e.store.CreateEntries(ctx, uow,
		TransactionEntry{EntryID: uuid.NewString(), TransactionID: tx.TransactionID, AccountID: from.AccountID, EntryType: EntryDebit, Amount: in.Amount},
		TransactionEntry{EntryID: uuid.NewString(), TransactionID: tx.TransactionID, AccountID: to.AccountID, EntryType: EntryCredit, Amount: in.Amount},
	); err != nil {
		return nil, ErrInternal(err)
	}

	// Step 11: finalize the transaction.
	completedAt := time.Now().UTC()
	if err := e.store.UpdateTransactionStatus(ctx, uow, tx.TransactionID, TransactionCompleted, &completedAt); err != nil {
		return nil, ErrInternal(err)
	}
	tx.Status = TransactionCompleted
	tx.CompletedAt = &completedAt

	// If this transfer is a reversal, retarget the original to REVERSED
	// in the same unit of work — still inside the commit boundary.
	if reversalOf != nil {
		if err := e.store.UpdateTransactionStatus(ctx, uow, *reversalOf, TransactionReversed, nil); err != nil {
			return nil, ErrInternal(err)
		}
	}

	// Step 12: store the idempotency record.
	responseData, err := json.Marshal(map[string]any{
		"transaction_id": tx.TransactionID,
		"status":         string(tx.Status),
		"amount":         tx.Amount.String(),
		"currency":       tx.Amount.Currency(),
	})
	if err != nil {
		return nil, ErrInternal(err)
	}
	if err := e.idempotency.Store(ctx, uow, in.IdempotencyKey, &tx.TransactionID, responseData, nil); err != nil {
		return nil, err
	}

	// Step 13: commit.
	if err := uow.Commit(ctx); err != nil {
		return nil, ErrInternal(err)
	}
	committed = true

	return &tx, nil
}

// Reverse executes the reversal algorithm: it is the
// transfer algorithm invoked with source and destination swapped, amount
// and currency copied from the original, after which the new
// transaction's type is REVERSAL and the original's status becomes
// REVERSED. If the underlying transfer fails (most commonly
// InsufficientFunds, because the destination has since drained), the
// original's status is left untouched — attemptTransfer only mutates it
// after the reversal transfer itself has fully succeeded.
func (e *PaymentEngine) Reverse(ctx context.Context, in ReversalInput) (*Transaction, error) {
	if strings.TrimSpace(in.Reason) == "" || len(strings.TrimSpace(in.Reason)) < minReversalReasonLength {
		return nil, ErrInvalidAmount(fmt.Sprintf("reversal reason must be at least %d characters", minReversalReasonLength))
	}

	original, err := e.store.GetTransaction(ctx, in.OriginalTransactionID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidAccount(in.OriginalTransactionID)
		}
		return nil, ErrInternal(err)
	}
	if original.Status != TransactionCompleted {
		return nil, ErrInvalidAmount(fmt.Sprintf("transaction %s is not COMPLETED", original.TransactionID))
	}
	if original.FromAccountID == nil || original.ToAccountID == nil {
		return nil, ErrInvalidAmount("original transaction has no account pair to reverse")
	}

	result, err := e.transfer(ctx, TransferInput{
		FromAccountID:  *original.ToAccountID,
		ToAccountID:    *original.FromAccountID,
		Amount:         original.Amount,
		IdempotencyKey: in.IdempotencyKey,
		Description:    in.Reason,
		Actor:          in.Actor,
	}, TransactionReversal, &original.TransactionID)

	if err != nil {
		e.metrics.RecordReversal("error")
		return nil, err
	}

	e.metrics.RecordReversal("success")
	e.events.PublishTransferReversed(ctx, *original, *result)
	return result, nil
}

// GetTransaction returns the transaction, or nil with a nil error if none
// exists.
func (e *PaymentEngine) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	tx, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, ErrInternal(err)
	}
	return tx, nil
}

// GetAccountTransactions returns transactions where accountID is source or
// destination, newest first, and the true total count across all matching
// rows, not just the page length.
func (e *PaymentEngine) GetAccountTransactions(ctx context.Context, accountID string, filter TransactionFilter) ([]Transaction, int64, error) {
	if filter.Limit < 1 || filter.Limit > 100 {
		return nil, 0, ErrInvalidAmount("limit must be between 1 and 100")
	}
	if filter.Offset < 0 {
		return nil, 0, ErrInvalidAmount("offset must be non-negative")
	}
	txs, total, err := e.store.GetAccountTransactions(ctx, accountID, filter)
	if err != nil {
		return nil, 0, ErrInternal(err)
	}
	return txs, total, nil
}

func (e *PaymentEngine) recordSuccess(ctx context.Context, txType TransactionType, amount money.Money, tx *Transaction, reversalOf *string) {
	amountFloat, _ := amount.Amount().Float64()
	if txType == TransactionReversal {
		e.metrics.RecordTransferAmount(amountFloat)
		return
	}
	e.metrics.RecordTransfer("success")
	e.metrics.RecordTransferAmount(amountFloat)
	e.events.PublishTransferCompleted(ctx, *tx)
}

func (e *PaymentEngine) recordFailure(txType TransactionType, err error) {
	if txType == TransactionReversal {
		return
	}
	e.metrics.RecordTransfer("error")
	logging.Warn("transfer failed", map[string]any{"error": err.Error()})
}
