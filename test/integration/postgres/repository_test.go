package postgres_test

import (
	"context"
	"testing"
	"time"

	"ledger-api/internal/ledger"
	"ledger-api/internal/money"
	"ledger-api/test/integration/testenv"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, balance string) ledger.Account {
	t.Helper()
	bal, err := money.NewFromString(balance, "USD")
	require.NoError(t, err)
	now := time.Now().UTC()
	return ledger.Account{
		AccountID: uuid.NewString(),
		UserID:    "repo-test-user",
		Currency:  "USD",
		Balance:   bal,
		Status:    ledger.AccountActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStoreCreateAndGetAccount(t *testing.T) {
	store := testenv.SetupPostgresStore(t)
	ctx := context.Background()

	acc := newTestAccount(t, "42.50")
	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(ctx, uow, acc))
	require.NoError(t, uow.Commit(ctx))

	fetched, err := store.GetAccount(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, acc.UserID, fetched.UserID)
	assert.True(t, acc.Balance.Equal(fetched.Balance))
	assert.Equal(t, ledger.AccountActive, fetched.Status)
}

func TestStoreGetAccountNotFound(t *testing.T) {
	store := testenv.SetupPostgresStore(t)
	_, err := store.GetAccount(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestStoreUpdateAccountBalanceUnderLock(t *testing.T) {
	store := testenv.SetupPostgresStore(t)
	ctx := context.Background()

	acc := newTestAccount(t, "10.00")
	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(ctx, uow, acc))
	require.NoError(t, uow.Commit(ctx))

	uow2, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	locked, err := store.GetAccountForUpdate(ctx, uow2, acc.AccountID)
	require.NoError(t, err)

	newBalance, err := money.NewFromString("55.00", "USD")
	require.NoError(t, err)
	locked.Balance = newBalance
	locked.Version++
	locked.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.UpdateAccountBalance(ctx, uow2, acc.AccountID, *locked))
	require.NoError(t, uow2.Commit(ctx))

	fetched, err := store.GetAccount(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "55.00", fetched.Balance.String())
	assert.Equal(t, int64(2), fetched.Version)
}

func TestStoreCreateTransactionRejectsDuplicateIdempotencyKey(t *testing.T) {
	store := testenv.SetupPostgresStore(t)
	ctx := context.Background()

	from := newTestAccount(t, "100.00")
	to := newTestAccount(t, "0.00")
	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(ctx, uow, from))
	require.NoError(t, store.CreateAccount(ctx, uow, to))
	require.NoError(t, uow.Commit(ctx))

	amount, err := money.NewFromString("25.00", "USD")
	require.NoError(t, err)
	tx := ledger.Transaction{
		TransactionID:   uuid.NewString(),
		FromAccountID:   &from.AccountID,
		ToAccountID:     &to.AccountID,
		Amount:          amount,
		TransactionType: ledger.TransactionTransfer,
		Status:          ledger.TransactionCompleted,
		IdempotencyKey:  "repo-test-key",
		CreatedAt:       time.Now().UTC(),
	}

	uow1, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	require.NoError(t, store.CreateTransaction(ctx, uow1, tx))
	require.NoError(t, uow1.Commit(ctx))

	tx.TransactionID = uuid.NewString()
	uow2, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	err = store.CreateTransaction(ctx, uow2, tx)
	assert.ErrorIs(t, err, ledger.ErrUniqueViolation)
	_ = uow2.Rollback(ctx)
}

func TestStoreGetAccountTransactionsPaginatesAndCountsAll(t *testing.T) {
	store := testenv.SetupPostgresStore(t)
	ctx := context.Background()

	acc := newTestAccount(t, "0.00")
	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(ctx, uow, acc))
	require.NoError(t, uow.Commit(ctx))

	const total = 5
	for i := 0; i < total; i++ {
		amount, err := money.NewFromString("1.00", "USD")
		require.NoError(t, err)
		tx := ledger.Transaction{
			TransactionID:   uuid.NewString(),
			ToAccountID:     &acc.AccountID,
			Amount:          amount,
			TransactionType: ledger.TransactionDeposit,
			Status:          ledger.TransactionCompleted,
			IdempotencyKey:  uuid.NewString(),
			CreatedAt:       time.Now().UTC(),
		}
		txUow, err := store.BeginUnitOfWork(ctx)
		require.NoError(t, err)
		require.NoError(t, store.CreateTransaction(ctx, txUow, tx))
		require.NoError(t, txUow.Commit(ctx))
	}

	page, totalCount, err := store.GetAccountTransactions(ctx, acc.AccountID, ledger.TransactionFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, page, 2, "page should respect the limit")
	assert.Equal(t, int64(total), totalCount, "total_count must reflect every matching row, not just the page length")
}
