// Package memstore is an in-memory ledger.Store (map + mutex + sequential
// ids) covering accounts, transactions, entries, audit logs, and
// idempotency records with real commit/rollback semantics. It backs fast
// unit tests without a live Postgres.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"ledger-api/internal/ledger"
)

// Store is a mutex-guarded in-memory implementation of ledger.Store.
type Store struct {
	mu sync.Mutex

	accounts     map[string]ledger.Account
	transactions map[string]ledger.Transaction
	entries      map[string][]ledger.TransactionEntry // keyed by transaction id
	auditLogs    []ledger.AuditLog
	idempotency  map[string]ledger.IdempotencyRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]ledger.Account),
		transactions: make(map[string]ledger.Transaction),
		entries:      make(map[string][]ledger.TransactionEntry),
		idempotency:  make(map[string]ledger.IdempotencyRecord),
	}
}

// unitOfWork buffers writes made under it and applies them atomically to
// the parent Store on Commit, discarding them on Rollback. It holds the
// Store's single mutex for its entire lifetime, which is sufficient (if
// coarser than Postgres row locks) to give memstore-backed tests the same
// serialization guarantees the real engine depends on.
type unitOfWork struct {
	store    *Store
	done     bool
	mutateFn []func(*Store)
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	for _, fn := range u.mutateFn {
		fn(u.store)
	}
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) stage(fn func(*Store)) {
	u.mutateFn = append(u.mutateFn, fn)
}

// BeginUnitOfWork locks the store for the duration of the unit of work.
// Nested calls from the same goroutine would deadlock, matching the real
// engine's rule that GetAccountForUpdate may only be called once per
// account per unit of work (lock-ordering discipline is enforced by the
// caller, not here).
func (s *Store) BeginUnitOfWork(ctx context.Context) (ledger.UnitOfWork, error) {
	s.mu.Lock()
	return &unitOfWork{store: s}, nil
}

func asUOW(uow ledger.UnitOfWork) *unitOfWork {
	u, ok := uow.(*unitOfWork)
	if !ok {
		panic("memstore: foreign UnitOfWork passed to memstore.Store")
	}
	return u
}

func (s *Store) CreateAccount(ctx context.Context, uow ledger.UnitOfWork, acc ledger.Account) error {
	u := asUOW(uow)
	u.stage(func(s *Store) {
		s.accounts[acc.AccountID] = acc
	})
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &acc, nil
}

// GetAccountForUpdate is identical to GetAccount here: the unit of work
// already holds the store's mutex, so every read under it is already
// exclusive.
func (s *Store) GetAccountForUpdate(ctx context.Context, uow ledger.UnitOfWork, id string) (*ledger.Account, error) {
	asUOW(uow)
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &acc, nil
}

func (s *Store) ListAccountsByUser(ctx context.Context, userID string, currency *string) ([]ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Account
	for _, acc := range s.accounts {
		if acc.UserID != userID {
			continue
		}
		if currency != nil && acc.Currency != *currency {
			continue
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (s *Store) UpdateAccountBalance(ctx context.Context, uow ledger.UnitOfWork, id string, newBalance ledger.Account) error {
	u := asUOW(uow)
	u.stage(func(s *Store) {
		s.accounts[id] = newBalance
	})
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, uow ledger.UnitOfWork, tx ledger.Transaction) error {
	u := asUOW(uow)
	for _, existing := range s.transactions {
		if existing.IdempotencyKey == tx.IdempotencyKey {
			return ledger.ErrUniqueViolation
		}
	}
	u.stage(func(s *Store) {
		s.transactions[tx.TransactionID] = tx
	})
	return nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, uow ledger.UnitOfWork, transactionID string, status ledger.TransactionStatus, completedAt *time.Time) error {
	u := asUOW(uow)
	u.stage(func(s *Store) {
		tx, ok := s.transactions[transactionID]
		if !ok {
			return
		}
		tx.Status = status
		tx.CompletedAt = completedAt
		s.transactions[transactionID] = tx
	})
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &tx, nil
}

func (s *Store) GetAccountTransactions(ctx context.Context, accountID string, filter ledger.TransactionFilter) ([]ledger.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []ledger.Transaction
	for _, tx := range s.transactions {
		if (tx.FromAccountID != nil && *tx.FromAccountID == accountID) ||
			(tx.ToAccountID != nil && *tx.ToAccountID == accountID) {
			if filter.Start != nil && tx.CreatedAt.Before(*filter.Start) {
				continue
			}
			if filter.End != nil && tx.CreatedAt.After(*filter.End) {
				continue
			}
			matched = append(matched, tx)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return matched[offset:end], total, nil
}

func (s *Store) CreateEntries(ctx context.Context, uow ledger.UnitOfWork, entries ...ledger.TransactionEntry) error {
	u := asUOW(uow)
	u.stage(func(s *Store) {
		for _, e := range entries {
			s.entries[e.TransactionID] = append(s.entries[e.TransactionID], e)
		}
	})
	return nil
}

func (s *Store) CreateAuditLogs(ctx context.Context, uow ledger.UnitOfWork, logs ...ledger.AuditLog) error {
	u := asUOW(uow)
	u.stage(func(s *Store) {
		s.auditLogs = append(s.auditLogs, logs...)
	})
	return nil
}

func (s *Store) GetIdempotencyRecord(ctx context.Context, key string) (*ledger.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.idempotency[key]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &rec, nil
}

func (s *Store) StoreIdempotencyRecord(ctx context.Context, uow ledger.UnitOfWork, rec ledger.IdempotencyRecord) error {
	u := asUOW(uow)
	if _, exists := s.idempotency[rec.Key]; exists {
		return ledger.ErrUniqueViolation
	}
	u.stage(func(s *Store) {
		s.idempotency[rec.Key] = rec
	})
	return nil
}
