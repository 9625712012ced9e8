package cache

import (
	"context"
	"testing"
	"time"

	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *TransactionCache {
	t.Helper()
	return NewTransactionCache(NewMemoryStore(), 10_000_000, logging.NewLogger("", ""))
}

func entryAt(ref string, offset time.Duration) CachedTransaction {
	return CachedTransaction{
		ID:        "tx-" + ref,
		Type:      "DEPOSIT",
		Status:    "COMPLETED",
		Amount:    1_000,
		Currency:  "EUR",
		Reference: ref,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Add(offset),
		SyncState: SyncSynced,
	}
}

func TestNormalizeOwner(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeOwner("  Alice@Example.COM "))
	assert.Equal(t, "42", NormalizeOwner("42"))
}

func TestOwnerNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Append(ctx, "alice", entryAt("ref-a", 0)))
	require.NoError(t, c.Append(ctx, "bob", entryAt("ref-b", 0)))

	alice, err := c.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "ref-a", alice[0].Reference)

	bob, err := c.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "ref-b", bob[0].Reference)

	// Owner lookups are case- and whitespace-insensitive.
	folded, err := c.List(ctx, "  ALICE ")
	require.NoError(t, err)
	assert.Len(t, folded, 1)
}

func TestAppendDeduplicatesByReference(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Append(ctx, "alice", entryAt("ref-1", 0)))
	require.NoError(t, c.Append(ctx, "alice", entryAt("ref-1", time.Hour)))

	entries, err := c.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListReturnsNewestFirst(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Append(ctx, "alice", entryAt("old", 0)))
	require.NoError(t, c.Append(ctx, "alice", entryAt("newest", 2*time.Hour)))
	require.NoError(t, c.Append(ctx, "alice", entryAt("middle", time.Hour)))

	entries, err := c.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "newest", entries[0].Reference)
	assert.Equal(t, "middle", entries[1].Reference)
	assert.Equal(t, "old", entries[2].Reference)
}

func TestListHealsCorruptedEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewTransactionCache(store, 10_000_000, logging.NewLogger("", ""))

	require.NoError(t, store.Put(ctx, "alice", KindTransactions, []byte("{not json")))

	entries, err := c.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The corrupted blob is gone, not just hidden.
	_, found, err := store.Get(ctx, "alice", KindTransactions)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBalanceCorruptionGuard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewTransactionCache(store, 10_000_000, logging.NewLogger("", ""))

	require.NoError(t, c.SetBalance(ctx, "alice", 4_500))
	balance, err := c.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4_500), balance)

	// Non-numeric stored value resets to 0.
	require.NoError(t, store.Put(ctx, "alice", KindBalance, []byte(`"corrupted"`)))
	balance, err = c.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// Out-of-range stored value resets to 0, never clamps.
	require.NoError(t, store.Put(ctx, "alice", KindBalance, []byte("-50")))
	balance, err = c.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	require.NoError(t, store.Put(ctx, "alice", KindBalance, []byte("99999999999")))
	balance, err = c.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestSetBalanceRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.SetBalance(ctx, "alice", -1))
	balance, err := c.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestClearRemovesOwnerState(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Append(ctx, "alice", entryAt("ref-1", 0)))
	require.NoError(t, c.SetBalance(ctx, "alice", 1_000))
	require.NoError(t, c.Append(ctx, "bob", entryAt("ref-2", 0)))

	require.NoError(t, c.Clear(ctx, "alice"))

	entries, err := c.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
	balance, err := c.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, balance)

	// Other owners are untouched.
	bob, err := c.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bob, 1)
}
