package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
)

// Kind names one value slot inside an owner's namespace.
type Kind string

const (
	KindBalance      Kind = "balance"
	KindTransactions Kind = "transactions"
	KindPending      Kind = "pending"
)

type SyncState string

const (
	SyncLocalOnly SyncState = "LOCAL_ONLY"
	SyncSynced    SyncState = "SYNCED"
	SyncConflict  SyncState = "CONFLICT"
)

// CachedTransaction mirrors a server transaction plus reconciliation
// state. SenderName is a caller-local annotation the server does not
// track; merges must preserve it from the local copy.
type CachedTransaction struct {
	ID                string    `json:"id"`
	BookingID         string    `json:"booking_id,omitempty"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Reference         string    `json:"reference"`
	ProviderReference string    `json:"provider_reference,omitempty"`
	SenderName        string    `json:"sender_name,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	SyncState         SyncState `json:"sync_state"`
}

// Store is the narrow per-owner keyed interface every backend satisfies.
// There is deliberately no way to enumerate owners: cross-owner reads
// are structurally impossible for callers.
type Store interface {
	Get(ctx context.Context, owner string, kind Kind) ([]byte, bool, error)
	Put(ctx context.Context, owner string, kind Kind, value []byte) error
	Delete(ctx context.Context, owner string, kind Kind) error
}

// NormalizeOwner folds an owner identity into its canonical cache form.
func NormalizeOwner(owner string) string {
	return strings.ToLower(strings.TrimSpace(owner))
}

func storageKey(owner string, kind Kind) string {
	return fmt.Sprintf("txcache:%s:%s", NormalizeOwner(owner), kind)
}

// TransactionCache is the client's durable mirror of the authoritative
// ledger, namespaced per owner.
type TransactionCache struct {
	store      Store
	maxBalance int64
	logger     *logging.Logger
}

func NewTransactionCache(store Store, maxBalance int64, logger *logging.Logger) *TransactionCache {
	return &TransactionCache{
		store:      store,
		maxBalance: maxBalance,
		logger:     logger,
	}
}

// List returns the owner's cached transactions, newest first. A cache
// entry that fails to decode is corrupted local state: it is reset to
// empty and logged, never surfaced.
func (c *TransactionCache) List(ctx context.Context, owner string) ([]CachedTransaction, error) {
	raw, found, err := c.store.Get(ctx, owner, KindTransactions)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var entries []CachedTransaction
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Error(fmt.Sprintf("corrupted transaction cache for owner %v, resetting: %v", NormalizeOwner(owner), err))
		if delErr := c.store.Delete(ctx, owner, KindTransactions); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	sortNewestFirst(entries)
	return entries, nil
}

// Append inserts an entry unless one with the same reference already
// exists in the owner's list.
func (c *TransactionCache) Append(ctx context.Context, owner string, entry CachedTransaction) error {
	entries, err := c.List(ctx, owner)
	if err != nil {
		return err
	}

	for _, existing := range entries {
		if existing.Reference != "" && existing.Reference == entry.Reference {
			return nil
		}
	}

	entries = append(entries, entry)
	return c.ReplaceAll(ctx, owner, entries)
}

// ReplaceAll persists the full reconciled list for an owner.
func (c *TransactionCache) ReplaceAll(ctx context.Context, owner string, entries []CachedTransaction) error {
	sortNewestFirst(entries)
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, owner, KindTransactions, raw)
}

// Balance reads the cached balance with the same corruption guard as the
// server wallet: non-numeric or out-of-range values heal to 0.
func (c *TransactionCache) Balance(ctx context.Context, owner string) (int64, error) {
	raw, found, err := c.store.Get(ctx, owner, KindBalance)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	var balance int64
	if err := json.Unmarshal(raw, &balance); err != nil {
		c.logger.Error(fmt.Sprintf("corrupted balance cache for owner %v, resetting: %v", NormalizeOwner(owner), err))
		return 0, c.SetBalance(ctx, owner, 0)
	}

	if balance < 0 || balance > c.maxBalance {
		c.logger.Error(fmt.Sprintf("out-of-range balance %d for owner %v, resetting", balance, NormalizeOwner(owner)))
		return 0, c.SetBalance(ctx, owner, 0)
	}

	return balance, nil
}

// SetBalance validates before writing; corrupted input is stored as 0,
// never clamped upward.
func (c *TransactionCache) SetBalance(ctx context.Context, owner string, balance int64) error {
	if balance < 0 || balance > c.maxBalance {
		c.logger.Error(fmt.Sprintf("rejecting out-of-range balance %d for owner %v, storing 0", balance, NormalizeOwner(owner)))
		balance = 0
	}
	raw, err := json.Marshal(balance)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, owner, KindBalance, raw)
}

// Clear removes the owner's namespace, used on sign-out.
func (c *TransactionCache) Clear(ctx context.Context, owner string) error {
	if err := c.store.Delete(ctx, owner, KindTransactions); err != nil {
		return err
	}
	return c.store.Delete(ctx, owner, KindBalance)
}

func sortNewestFirst(entries []CachedTransaction) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
