// Package ledger implements the transactional core: account lifecycle,
// the double-entry payment engine, and the store/idempotency contracts
// those depend on. It has no knowledge of HTTP, Kafka or Redis — those are
// wired in at the edges (internal/api, internal/events, internal/cache).
package ledger

import (
	"time"

	"ledger-api/internal/money"
)

// AccountStatus is the lifecycle state of an Account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountClosed    AccountStatus = "CLOSED"
)

// Account holds a single-currency balance owned exclusively by this entity.
type Account struct {
	AccountID string
	UserID    string
	Currency  string
	Balance   money.Money
	Status    AccountStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionType classifies a Transaction.
type TransactionType string

const (
	TransactionTransfer   TransactionType = "TRANSFER"
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
	TransactionRefund     TransactionType = "REFUND"
	TransactionReversal   TransactionType = "REVERSAL"
)

// TransactionStatus is the Transaction state machine's current state.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionReversed  TransactionStatus = "REVERSED"
)

// Transaction is a single money-movement record. TRANSFER transactions have
// both FromAccountID and ToAccountID set.
type Transaction struct {
	TransactionID   string
	FromAccountID   *string
	ToAccountID     *string
	Amount          money.Money
	TransactionType TransactionType
	Status          TransactionStatus
	IdempotencyKey  string
	ReferenceID     *string
	Description     *string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// EntryType is one side of a double-entry journal line.
type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// TransactionEntry is one journal line of a Transaction.
type TransactionEntry struct {
	EntryID       string
	TransactionID string
	AccountID     string
	EntryType     EntryType
	Amount        money.Money
}

// AuditLog is an append-only record of a balance mutation or other
// significant action. Never updated once written.
type AuditLog struct {
	LogID         string
	TransactionID *string
	AccountID     *string
	Action        string
	OldBalance    *money.Money
	NewBalance    *money.Money
	UserID        *string
	IPAddress     *string
	UserAgent     *string
	ExtraData     map[string]any
	CreatedAt     time.Time
}

// Common audit action codes, promoted to stable constants instead of ad
// hoc strings.
const (
	ActionAccountCreated = "ACCOUNT_CREATED"
	ActionBalanceUpdated = "BALANCE_UPDATED"
	ActionTransferDebit  = "TRANSFER_DEBIT"
	ActionTransferCredit = "TRANSFER_CREDIT"
)

// IdempotencyRecord is the durable, authoritative idempotency tier. A cache
// entry is only an accelerator over this record; see internal/idempotency.
type IdempotencyRecord struct {
	Key            string
	TransactionID  *string
	RequestHash    *string
	ResponseData   []byte
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// ActorMetadata carries audit-trail context about who initiated an
// operation. All fields are optional; the HTTP layer fills in what its
// (stubbed) auth and request context provide.
type ActorMetadata struct {
	UserID    string
	IPAddress string
	UserAgent string
}
