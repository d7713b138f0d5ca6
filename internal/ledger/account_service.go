package ledger

import (
	"context"
	"fmt"
	"time"

	"ledger-api/internal/cache"
	"ledger-api/internal/money"

	"github.com/google/uuid"
)

const balanceCacheTTL = 300 * time.Second

// AccountService owns account lifecycle and balance mutation.
// Balance mutation happens only inside a caller-supplied UnitOfWork, via
// UpdateBalance, which holds a database row lock so the guarantee holds
// across processes, not just goroutines.
type AccountService struct {
	store Store
	cache cache.Adapter
}

// NewAccountService builds an AccountService over store, using cache for
// balance reads (cache.Adapter is never required to succeed; see Cache
// Adapter contract in internal/cache).
func NewAccountService(store Store, cacheAdapter cache.Adapter) *AccountService {
	return &AccountService{store: store, cache: cacheAdapter}
}

// Create opens a new ACTIVE account, writes an ACCOUNT_CREATED audit row,
// and returns it.
func (s *AccountService) Create(ctx context.Context, uow UnitOfWork, userID, currency string, initialBalance *money.Money) (*Account, error) {
	bal := money.Zero(currency)
	if initialBalance != nil {
		bal = *initialBalance
	}
	if bal.Currency() != normalizeCurrency(currency) {
		return nil, ErrCurrencyMismatch("initial balance currency does not match account currency")
	}

	now := time.Now().UTC()
	acc := Account{
		AccountID: uuid.NewString(),
		UserID:    userID,
		Currency:  normalizeCurrency(currency),
		Balance:   bal,
		Status:    AccountActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateAccount(ctx, uow, acc); err != nil {
		return nil, ErrInternal(err)
	}

	logID := uuid.NewString()
	if err := s.store.CreateAuditLogs(ctx, uow, AuditLog{
		LogID:      logID,
		AccountID:  &acc.AccountID,
		Action:     ActionAccountCreated,
		NewBalance: &acc.Balance,
		UserID:     strPtr(userID),
		CreatedAt:  now,
	}); err != nil {
		return nil, ErrInternal(err)
	}

	return &acc, nil
}

// Get is a non-locking read. Fails with KindInvalidAccount if missing.
func (s *AccountService) Get(ctx context.Context, id string) (*Account, error) {
	acc, err := s.store.GetAccount(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidAccount(id)
		}
		return nil, ErrInternal(err)
	}
	return acc, nil
}

// GetForUpdate acquires an exclusive row lock scoped to uow. Fails
// KindInvalidAccount if missing, KindAccountSuspended if status != ACTIVE.
// Precondition: uow is open.
func (s *AccountService) GetForUpdate(ctx context.Context, uow UnitOfWork, id string) (*Account, error) {
	acc, err := s.store.GetAccountForUpdate(ctx, uow, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrInvalidAccount(id)
		}
		return nil, ErrInternal(err)
	}
	if acc.Status != AccountActive {
		return nil, ErrAccountSuspended(id)
	}
	return acc, nil
}

// ListByUser enumerates accounts owned by userID, optionally filtered to
// one currency.
func (s *AccountService) ListByUser(ctx context.Context, userID string, currency *string) ([]Account, error) {
	accs, err := s.store.ListAccountsByUser(ctx, userID, currency)
	if err != nil {
		return nil, ErrInternal(err)
	}
	return accs, nil
}

// GetBalance returns the account's balance, served from cache when
// present. Cache entries are invalidated by UpdateBalance and carry a TTL
// no greater than 300s; a cache miss or error simply falls through to the
// store, per the Cache Adapter's best-effort contract.
type cachedBalance struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

func (s *AccountService) GetBalance(ctx context.Context, id string) (money.Money, error) {
	cacheKey := balanceCacheKey(id)

	var cached cachedBalance
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		if m, err := money.NewFromString(cached.Amount, cached.Currency); err == nil {
			return m, nil
		}
	}

	acc, err := s.Get(ctx, id)
	if err != nil {
		return money.Money{}, err
	}

	s.cache.SetJSON(ctx, cacheKey, cachedBalance{Currency: acc.Balance.Currency(), Amount: acc.Balance.String()}, balanceCacheTTL)
	return acc.Balance, nil
}

// UpdateBalance expects acc to have been locked by a prior GetForUpdate in
// the same uow, persists the new balance and an incremented version, emits
// one audit row with the given action code (e.g. BALANCE_UPDATED,
// TRANSFER_DEBIT) and old/new balances, and invalidates the cached
// balance/account entries for acc.AccountID.
func (s *AccountService) UpdateBalance(ctx context.Context, uow UnitOfWork, acc Account, newBalance money.Money, action string, actor ActorMetadata) error {
	oldBalance := acc.Balance
	updated := acc
	updated.Balance = newBalance
	updated.Version = acc.Version + 1
	updated.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAccountBalance(ctx, uow, acc.AccountID, updated); err != nil {
		return ErrInternal(err)
	}

	if err := s.store.CreateAuditLogs(ctx, uow, AuditLog{
		LogID:      uuid.NewString(),
		AccountID:  &acc.AccountID,
		Action:     action,
		OldBalance: &oldBalance,
		NewBalance: &newBalance,
		UserID:     optionalStrPtr(actor.UserID),
		IPAddress:  optionalStrPtr(actor.IPAddress),
		UserAgent:  optionalStrPtr(actor.UserAgent),
		CreatedAt:  updated.UpdatedAt,
	}); err != nil {
		return ErrInternal(err)
	}

	s.invalidateCache(ctx, acc.AccountID)
	return nil
}

func (s *AccountService) invalidateCache(ctx context.Context, accountID string) {
	s.cache.Delete(ctx, balanceCacheKey(accountID))
	s.cache.Delete(ctx, accountCacheKey(accountID))
}

func balanceCacheKey(id string) string { return fmt.Sprintf("balance:%s", id) }
func accountCacheKey(id string) string { return fmt.Sprintf("account:%s", id) }

func strPtr(s string) *string { return &s }

func optionalStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func normalizeCurrency(c string) string {
	out := make([]byte, 0, len(c))
	for i := 0; i < len(c); i++ {
		ch := c[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		out = append(out, ch)
	}
	return string(out)
}
