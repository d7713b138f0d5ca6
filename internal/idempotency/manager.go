// Package idempotency implements the two-tier idempotency key store: a
// fast cache.Adapter accelerator in front of the ledger.Store's durable,
// authoritative record. Hash produces a SHA-256 hex digest of a canonical
// request representation. Check reads outside any unit of work; Store
// writes the durable record inside the caller's unit of work, so that
// record becomes visible in the store only when the caller commits.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"ledger-api/internal/cache"
	"ledger-api/internal/ledger"
)

const cacheKeyPrefix = "idempotency:"

// Manager bridges the durable store and the cache adapter. It does not
// decide whether a request is a duplicate — that is the Payment Engine's
// call; Manager's only invariant is that a key has either no record or
// one stable record until ExpiresAt.
type Manager struct {
	store ledger.Store
	cache cache.Adapter
	ttl   time.Duration
}

// New builds a Manager with the given idempotency key TTL
// (IDEMPOTENCY_KEY_TTL_SECONDS, default 24h).
func New(store ledger.Store, cacheAdapter cache.Adapter, ttl time.Duration) *Manager {
	return &Manager{store: store, cache: cacheAdapter, ttl: ttl}
}

// Check looks up key, consulting the cache first and falling through to
// the store on a miss. A store hit repopulates the cache with the record's
// remaining TTL. Expired records (ExpiresAt <= now) are treated as absent.
func (m *Manager) Check(ctx context.Context, key string) (*ledger.IdempotencyRecord, bool) {
	cacheKey := cacheKeyPrefix + key

	var cached ledger.IdempotencyRecord
	if m.cache.GetJSON(ctx, cacheKey, &cached) {
		if cached.ExpiresAt.After(time.Now()) {
			return &cached, true
		}
		return nil, false
	}

	rec, err := m.store.GetIdempotencyRecord(ctx, key)
	if err != nil || rec == nil {
		return nil, false
	}
	if !rec.ExpiresAt.After(time.Now()) {
		return nil, false
	}

	remaining := time.Until(rec.ExpiresAt)
	if remaining > 0 {
		m.cache.SetJSON(ctx, cacheKey, rec, remaining)
	}
	return rec, true
}

// Store persists rec within uow (so an abandoned unit of work leaves no
// durable record behind) and writes the same record into the cache at
// once, before uow commits: a cached record outlives a rolled-back uow.
func (m *Manager) Store(ctx context.Context, uow ledger.UnitOfWork, key string, transactionID *string, responseData []byte, requestHash *string) error {
	now := time.Now()
	rec := ledger.IdempotencyRecord{
		Key:           key,
		TransactionID: transactionID,
		RequestHash:   requestHash,
		ResponseData:  responseData,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.ttl),
	}

	if err := m.store.StoreIdempotencyRecord(ctx, uow, rec); err != nil {
		return err
	}

	m.cache.SetJSON(ctx, cacheKeyPrefix+key, rec, m.ttl)
	return nil
}

// Hash computes a stable hex digest over the canonical-sorted JSON
// representation of fields, so any set of business-relevant request
// fields hashes the same way regardless of map iteration order.
func Hash(fields map[string]any) (string, error) {
	canonical, err := canonicalJSON(fields)
	if err != nil {
		return "", fmt.Errorf("idempotency: hash request fields: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON renders a map as JSON with keys sorted, so the same
// logical request always hashes to the same digest regardless of map
// iteration order.
func canonicalJSON(fields map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(fields[k])
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, keyJSON...)
		ordered = append(ordered, ':')
		ordered = append(ordered, valJSON...)
	}
	ordered = append(ordered, '}')
	return ordered, nil
}
