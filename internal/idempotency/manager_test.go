package idempotency_test

import (
	"context"
	"testing"
	"time"

	"ledger-api/internal/cache/memcache"
	"ledger-api/internal/idempotency"
	"ledger-api/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMissReturnsFalse(t *testing.T) {
	store := memstore.New()
	m := idempotency.New(store, memcache.New(), time.Hour)

	_, ok := m.Check(context.Background(), "unknown-key")
	assert.False(t, ok)
}

func TestStoreThenCheckFindsRecordAcrossFreshCache(t *testing.T) {
	store := memstore.New()
	cacheA := memcache.New()
	m := idempotency.New(store, cacheA, time.Hour)
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	txID := "tx-1"
	require.NoError(t, m.Store(ctx, uow, "key-1", &txID, []byte(`{"ok":true}`), nil))
	require.NoError(t, uow.Commit(ctx))

	rec, ok := m.Check(ctx, "key-1")
	require.True(t, ok)
	require.NotNil(t, rec.TransactionID)
	assert.Equal(t, "tx-1", *rec.TransactionID)

	// A fresh Manager sharing only the durable store, with a cold cache,
	// must still find the record via the store fallback path.
	cold := idempotency.New(store, memcache.New(), time.Hour)
	rec, ok = cold.Check(ctx, "key-1")
	require.True(t, ok)
	require.NotNil(t, rec.TransactionID)
	assert.Equal(t, "tx-1", *rec.TransactionID)
}

func TestExpiredRecordIsTreatedAsAbsent(t *testing.T) {
	store := memstore.New()
	m := idempotency.New(store, memcache.New(), -time.Minute)
	ctx := context.Background()

	uow, err := store.BeginUnitOfWork(ctx)
	require.NoError(t, err)
	txID := "tx-expired"
	require.NoError(t, m.Store(ctx, uow, "key-expired", &txID, nil, nil))
	require.NoError(t, uow.Commit(ctx))

	_, ok := m.Check(ctx, "key-expired")
	assert.False(t, ok)
}

func TestHashIsStableRegardlessOfFieldOrder(t *testing.T) {
	a, err := idempotency.Hash(map[string]any{"from": "acc-1", "to": "acc-2", "amount": "10.00"})
	require.NoError(t, err)
	b, err := idempotency.Hash(map[string]any{"amount": "10.00", "to": "acc-2", "from": "acc-1"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashDiffersOnDifferentFields(t *testing.T) {
	a, err := idempotency.Hash(map[string]any{"amount": "10.00"})
	require.NoError(t, err)
	b, err := idempotency.Hash(map[string]any{"amount": "10.01"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
