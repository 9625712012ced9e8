package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/StayBridge/StayBridge-Backend/client/cache"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
)

// Server is the authoritative side of a reconciliation: the wallet API,
// or a fake in tests.
type Server interface {
	FetchTransactions(ctx context.Context, owner string) ([]cache.CachedTransaction, error)
	FetchBalance(ctx context.Context, owner string) (int64, error)
}

// ErrReconcileInFlight is returned when a run for the same owner has not
// finished yet; runs for one owner never overlap.
var ErrReconcileInFlight = fmt.Errorf("reconciliation already running for owner")

// Snapshot is the single reconciled view republished to the UI layer.
type Snapshot struct {
	Transactions []cache.CachedTransaction
	Balance      int64
	// Authoritative is true when Balance came from the server rather
	// than the local fold. A calculated balance is never persisted as
	// truth; it is recomputed on the next successful reconciliation.
	Authoritative bool
}

type Engine struct {
	server  Server
	cache   *cache.TransactionCache
	logger  *logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

func NewEngine(server Server, txCache *cache.TransactionCache, logger *logging.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{
		server:   server,
		cache:    txCache,
		logger:   logger,
		timeout:  timeout,
		inflight: make(map[string]bool),
	}
}

func (e *Engine) acquire(owner string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[owner] {
		return false
	}
	e.inflight[owner] = true
	return true
}

func (e *Engine) release(owner string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, owner)
}

// Reconcile merges the authoritative transaction log with the local
// cache, recomputes the balance and persists the reconciled view. When
// the server is unreachable it degrades to cache-only results instead of
// blocking.
func (e *Engine) Reconcile(ctx context.Context, owner string) (*Snapshot, error) {
	owner = cache.NormalizeOwner(owner)
	if !e.acquire(owner) {
		return nil, ErrReconcileInFlight
	}
	defer e.release(owner)

	local, err := e.cache.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	netCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	authoritative, fetchErr := e.server.FetchTransactions(netCtx, owner)
	if fetchErr != nil {
		e.logger.Warn(fmt.Sprintf("transaction fetch failed for owner %v, using cache only: %v", owner, fetchErr))
	}

	merged := Merge(authoritative, local)
	calculated := CalculateBalance(merged)

	balance := calculated
	authoritativeBalance := false
	if fetchErr == nil {
		serverBalance, balErr := e.server.FetchBalance(netCtx, owner)
		if balErr != nil {
			e.logger.Warn(fmt.Sprintf("balance fetch failed for owner %v, using calculated balance: %v", owner, balErr))
		} else if serverBalance >= 0 {
			balance = serverBalance
			authoritativeBalance = true
		}
	}

	// Respect session end: a cancelled owner context must not write to
	// the cache namespace anymore.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := e.cache.ReplaceAll(ctx, owner, merged); err != nil {
		return nil, err
	}
	if err := e.cache.SetBalance(ctx, owner, balance); err != nil {
		return nil, err
	}

	return &Snapshot{
		Transactions:  merged,
		Balance:       balance,
		Authoritative: authoritativeBalance,
	}, nil
}
