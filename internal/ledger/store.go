package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrUniqueViolation is returned by Store.CreateTransaction when the
// idempotency key collides with an existing row — the only infrastructure
// error the core must distinguish from an opaque internal failure.
var ErrUniqueViolation = errors.New("ledger: unique constraint violation")

// ErrNotFound is returned by any Store lookup that found nothing.
var ErrNotFound = errors.New("ledger: not found")

// UnitOfWork scopes a set of Store writes to a single atomic commit: one
// caller-visible value threaded through every multi-statement operation.
// No ambient/context-carried transaction exists anywhere in this codebase.
type UnitOfWork interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionFilter narrows Store.GetAccountTransactions.
type TransactionFilter struct {
	Limit  int
	Offset int
	Start  *time.Time
	End    *time.Time
}

// Store is the ledger's durable persistence contract. A
// Postgres-backed implementation lives in internal/store/postgres; an
// in-memory implementation lives in internal/store/memstore and backs
// fast unit tests.
type Store interface {
	// BeginUnitOfWork opens a new atomic scope. All subsequent calls that
	// accept a UnitOfWork participate in the same transaction until
	// Commit or Rollback is called.
	BeginUnitOfWork(ctx context.Context) (UnitOfWork, error)

	CreateAccount(ctx context.Context, uow UnitOfWork, acc Account) error
	// GetAccount is a non-locking read; safe to call with or without an
	// open unit of work.
	GetAccount(ctx context.Context, id string) (*Account, error)
	// GetAccountForUpdate acquires an exclusive row lock held until uow
	// commits or rolls back. Precondition: uow is open.
	GetAccountForUpdate(ctx context.Context, uow UnitOfWork, id string) (*Account, error)
	ListAccountsByUser(ctx context.Context, userID string, currency *string) ([]Account, error)
	// UpdateAccountBalance asserts the row is already locked by uow (i.e.
	// a prior GetAccountForUpdate in the same unit of work), persists the
	// new balance, and increments version.
	UpdateAccountBalance(ctx context.Context, uow UnitOfWork, id string, newBalance Account) error

	// CreateTransaction inserts a PENDING transaction. Returns
	// ErrUniqueViolation if idempotency_key already exists.
	CreateTransaction(ctx context.Context, uow UnitOfWork, tx Transaction) error
	UpdateTransactionStatus(ctx context.Context, uow UnitOfWork, transactionID string, status TransactionStatus, completedAt *time.Time) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	// GetAccountTransactions returns transactions where the account is
	// source or destination, newest first, plus the true total count
	// across every matching row, not just the page length.
	GetAccountTransactions(ctx context.Context, accountID string, filter TransactionFilter) ([]Transaction, int64, error)

	CreateEntries(ctx context.Context, uow UnitOfWork, entries ...TransactionEntry) error
	CreateAuditLogs(ctx context.Context, uow UnitOfWork, logs ...AuditLog) error

	// GetIdempotencyRecord is a direct durable-tier read, used by the
	// idempotency manager's cache-miss path.
	GetIdempotencyRecord(ctx context.Context, key string) (*IdempotencyRecord, error)
	// StoreIdempotencyRecord writes within uow, so an abandoned unit of
	// work leaves no key reservation behind.
	StoreIdempotencyRecord(ctx context.Context, uow UnitOfWork, rec IdempotencyRecord) error
}
