package ledger_test

import (
	"context"
	"testing"

	"ledger-api/internal/cache/memcache"
	"ledger-api/internal/ledger"
	"ledger-api/internal/money"
	"ledger-api/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountDefaultsToZeroBalance(t *testing.T) {
	store := memstore.New()
	accounts := ledger.NewAccountService(store, memcache.New())
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)

	acc, err := accounts.Create(ctx, uow, "user-1", "usd", nil)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))

	assert.Equal(t, "USD", acc.Currency)
	assert.Equal(t, "0.00", acc.Balance.String())
	assert.Equal(t, ledger.AccountActive, acc.Status)
	assert.Equal(t, int64(1), acc.Version)
}

func TestCreateAccountRejectsMismatchedInitialBalanceCurrency(t *testing.T) {
	store := memstore.New()
	accounts := ledger.NewAccountService(store, memcache.New())
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)

	bal, err := money.NewFromString("10.00", "EUR")
	require.NoError(t, err)

	_, err = accounts.Create(ctx, uow, "user-1", "USD", &bal)
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindCurrencyMismatch))
}

func TestGetBalanceUsesCacheOnSecondCall(t *testing.T) {
	store := memstore.New()
	cache := memcache.New()
	accounts := ledger.NewAccountService(store, cache)
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	bal, err := money.NewFromString("42.50", "USD")
	require.NoError(t, err)
	acc, err := accounts.Create(ctx, uow, "user-1", "USD", &bal)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))

	got, err := accounts.GetBalance(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "42.50", got.String())

	got, err = accounts.GetBalance(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "42.50", got.String())
}

func TestUpdateBalanceInvalidatesCache(t *testing.T) {
	store := memstore.New()
	cache := memcache.New()
	accounts := ledger.NewAccountService(store, cache)
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	bal, err := money.NewFromString("100.00", "USD")
	require.NoError(t, err)
	acc, err := accounts.Create(ctx, uow, "user-1", "USD", &bal)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))

	_, err = accounts.GetBalance(ctx, acc.AccountID)
	require.NoError(t, err)

	uow2, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	locked, err := accounts.GetForUpdate(ctx, uow2, acc.AccountID)
	require.NoError(t, err)

	newBal, err := money.NewFromString("70.00", "USD")
	require.NoError(t, err)
	require.NoError(t, accounts.UpdateBalance(ctx, uow2, *locked, newBal, ledger.ActionBalanceUpdated, ledger.ActorMetadata{}))
	require.NoError(t, uow2.Commit(ctx))

	got, err := accounts.GetBalance(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "70.00", got.String())
}

func TestGetForUpdateRejectsSuspendedAccount(t *testing.T) {
	store := memstore.New()
	accounts := ledger.NewAccountService(store, memcache.New())
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	acc, err := accounts.Create(ctx, uow, "user-1", "USD", nil)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))

	suspended := *acc
	suspended.Status = ledger.AccountSuspended
	uow2, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	require.NoError(t, store.UpdateAccountBalance(ctx, uow2, acc.AccountID, suspended))
	require.NoError(t, uow2.Commit(ctx))

	uow3, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	_, err = accounts.GetForUpdate(ctx, uow3, acc.AccountID)
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindAccountSuspended))
}

func TestGetUnknownAccountIsInvalidAccount(t *testing.T) {
	store := memstore.New()
	accounts := ledger.NewAccountService(store, memcache.New())
	ctx := context.Background()

	_, err := accounts.Get(ctx, "does-not-exist")
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindInvalidAccount))
}
