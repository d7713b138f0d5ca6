package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ledger-api/internal/cache/memcache"
	"ledger-api/internal/idempotency"
	"ledger-api/internal/ledger"
	"ledger-api/internal/metrics"
	"ledger-api/internal/money"
	"ledger-api/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness wires a PaymentEngine against the in-memory store with no-op
// event publishing, for fast in-process tests.
type harness struct {
	store    *memstore.Store
	accounts *ledger.AccountService
	engine   *ledger.PaymentEngine
}

type noopEvents struct{}

func (noopEvents) PublishTransferCompleted(context.Context, ledger.Transaction)           {}
func (noopEvents) PublishTransferReversed(context.Context, ledger.Transaction, ledger.Transaction) {}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memstore.New()
	c := memcache.New()
	accounts := ledger.NewAccountService(store, c)
	idm := idempotency.New(store, c, 24*time.Hour)
	engine := ledger.NewPaymentEngine(store, accounts, idm, noopEvents{}, metrics.NoOp{})
	return &harness{store: store, accounts: accounts, engine: engine}
}

func (h *harness) createAccount(t *testing.T, ctx context.Context, userID, currency string, balance string) ledger.Account {
	t.Helper()
	uow, err := h.store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	bal, err := money.NewFromString(balance, currency)
	require.NoError(t, err)
	acc, err := h.accounts.Create(ctx, uow, userID, currency, &bal)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))
	return *acc
}

func TestTransferMovesFundsBetweenAccounts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	from := h.createAccount(t, ctx, "user-1", "USD", "100.00")
	to := h.createAccount(t, ctx, "user-2", "USD", "50.00")

	amount, err := money.NewFromString("30.00", "USD")
	require.NoError(t, err)

	tx, err := h.engine.Transfer(ctx, ledger.TransferInput{
		FromAccountID:  from.AccountID,
		ToAccountID:    to.AccountID,
		Amount:         amount,
		IdempotencyKey: "key-1",
		Description:    "rent",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.TransactionCompleted, tx.Status)

	fromBal, err := h.accounts.GetBalance(ctx, from.AccountID)
	require.NoError(t, err)
	toBal, err := h.accounts.GetBalance(ctx, to.AccountID)
	require.NoError(t, err)

	assert.Equal(t, "70.00", fromBal.String())
	assert.Equal(t, "80.00", toBal.String())
}

func TestTransferInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	from := h.createAccount(t, ctx, "user-1", "USD", "10.00")
	to := h.createAccount(t, ctx, "user-2", "USD", "0.00")

	amount, err := money.NewFromString("50.00", "USD")
	require.NoError(t, err)

	_, err = h.engine.Transfer(ctx, ledger.TransferInput{
		FromAccountID:  from.AccountID,
		ToAccountID:    to.AccountID,
		Amount:         amount,
		IdempotencyKey: "key-2",
	})
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindInsufficientFunds))
}

func TestTransferCurrencyMismatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	from := h.createAccount(t, ctx, "user-1", "USD", "100.00")
	to := h.createAccount(t, ctx, "user-2", "EUR", "100.00")

	amount, err := money.NewFromString("10.00", "USD")
	require.NoError(t, err)

	_, err = h.engine.Transfer(ctx, ledger.TransferInput{
		FromAccountID:  from.AccountID,
		ToAccountID:    to.AccountID,
		Amount:         amount,
		IdempotencyKey: "key-3",
	})
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindCurrencyMismatch))
}

func TestDuplicateTransferReturnsOriginal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	from := h.createAccount(t, ctx, "user-1", "USD", "100.00")
	to := h.createAccount(t, ctx, "user-2", "USD", "0.00")

	amount, err := money.NewFromString("25.00", "USD")
	require.NoError(t, err)

	in := ledger.TransferInput{
		FromAccountID:  from.AccountID,
		ToAccountID:    to.AccountID,
		Amount:         amount,
		IdempotencyKey: "dup-key",
	}

	first, err := h.engine.Transfer(ctx, in)
	require.NoError(t, err)

	_, err = h.engine.Transfer(ctx, in)
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindDuplicateTransaction))
	le, ok := err.(*ledger.Error)
	require.True(t, ok)
	assert.Equal(t, first.TransactionID, le.TransactionID)

	fromBal, err := h.accounts.GetBalance(ctx, from.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "75.00", fromBal.String())
	assert.NotEmpty(t, first.TransactionID)
}

func TestReversalRestoresOriginalBalances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	from := h.createAccount(t, ctx, "user-1", "USD", "100.00")
	to := h.createAccount(t, ctx, "user-2", "USD", "0.00")

	amount, err := money.NewFromString("40.00", "USD")
	require.NoError(t, err)

	tx, err := h.engine.Transfer(ctx, ledger.TransferInput{
		FromAccountID:  from.AccountID,
		ToAccountID:    to.AccountID,
		Amount:         amount,
		IdempotencyKey: "transfer-to-reverse",
	})
	require.NoError(t, err)

	reversal, err := h.engine.Reverse(ctx, ledger.ReversalInput{
		OriginalTransactionID: tx.TransactionID,
		Reason:                "customer requested refund",
		IdempotencyKey:        "reverse-key",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.TransactionReversal, reversal.TransactionType)

	fromBal, err := h.accounts.GetBalance(ctx, from.AccountID)
	require.NoError(t, err)
	toBal, err := h.accounts.GetBalance(ctx, to.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", fromBal.String())
	assert.Equal(t, "0.00", toBal.String())

	original, err := h.engine.GetTransaction(ctx, tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TransactionReversed, original.Status)
}

// TestConcurrentReciprocalTransfersDoNotDeadlock fires many goroutines
// transferring in both directions between the same two accounts; all
// must complete without deadlock and the sum of both balances must be
// conserved throughout.
func TestConcurrentReciprocalTransfersDoNotDeadlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.createAccount(t, ctx, "user-a", "USD", "1000.00")
	b := h.createAccount(t, ctx, "user-b", "USD", "1000.00")

	amount, err := money.NewFromString("1.00", "USD")
	require.NoError(t, err)

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(rounds * 2)

	for i := 0; i < rounds; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, _ = h.engine.Transfer(ctx, ledger.TransferInput{
				FromAccountID:  a.AccountID,
				ToAccountID:    b.AccountID,
				Amount:         amount,
				IdempotencyKey: "a-to-b-" + itoa(i),
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = h.engine.Transfer(ctx, ledger.TransferInput{
				FromAccountID:  b.AccountID,
				ToAccountID:    a.AccountID,
				Amount:         amount,
				IdempotencyKey: "b-to-a-" + itoa(i),
			})
		}()
	}
	wg.Wait()

	aBal, err := h.accounts.GetBalance(ctx, a.AccountID)
	require.NoError(t, err)
	bBal, err := h.accounts.GetBalance(ctx, b.AccountID)
	require.NoError(t, err)

	total, err := aBal.Add(bBal)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", total.String())
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}
