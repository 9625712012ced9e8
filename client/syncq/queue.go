package syncq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/StayBridge/StayBridge-Backend/client/cache"
	"github.com/StayBridge/StayBridge-Backend/services/monitoring/logging"
)

// The queue lives in one fixed namespace shared across owners; reads
// filter on the owner embedded in each mutation.
const queueNamespace = "_pending"

// Mutation is a locally created operation awaiting server acknowledgment.
type Mutation struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	RetryCount  int             `json:"retry_count"`
	LastAttempt time.Time       `json:"last_attempt"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Queue is the durable pending-mutation store behind the sync driver.
type Queue struct {
	store  cache.Store
	logger *logging.Logger
}

func NewQueue(store cache.Store, logger *logging.Logger) *Queue {
	return &Queue{store: store, logger: logger}
}

func (q *Queue) load(ctx context.Context) ([]Mutation, error) {
	raw, found, err := q.store.Get(ctx, queueNamespace, cache.KindPending)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var items []Mutation
	if err := json.Unmarshal(raw, &items); err != nil {
		// Corrupted queue state heals to empty; losing replays is
		// recoverable, blocking every future replay is not.
		q.logger.Error(fmt.Sprintf("corrupted pending queue, resetting: %v", err))
		if delErr := q.store.Delete(ctx, queueNamespace, cache.KindPending); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}
	return items, nil
}

func (q *Queue) save(ctx context.Context, items []Mutation) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return q.store.Put(ctx, queueNamespace, cache.KindPending, raw)
}

func (q *Queue) Enqueue(ctx context.Context, m Mutation) error {
	items, err := q.load(ctx)
	if err != nil {
		return err
	}

	for _, existing := range items {
		if existing.ID == m.ID {
			return nil
		}
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.OwnerID = cache.NormalizeOwner(m.OwnerID)

	items = append(items, m)
	return q.save(ctx, items)
}

// List returns the pending mutations belonging to one owner.
func (q *Queue) List(ctx context.Context, owner string) ([]Mutation, error) {
	items, err := q.load(ctx)
	if err != nil {
		return nil, err
	}

	owner = cache.NormalizeOwner(owner)
	var out []Mutation
	for _, m := range items {
		if m.OwnerID == owner {
			out = append(out, m)
		}
	}
	return out, nil
}

func (q *Queue) Update(ctx context.Context, m Mutation) error {
	items, err := q.load(ctx)
	if err != nil {
		return err
	}

	for i := range items {
		if items[i].ID == m.ID {
			items[i] = m
			return q.save(ctx, items)
		}
	}
	return fmt.Errorf("mutation %v not found in queue", m.ID)
}

func (q *Queue) Remove(ctx context.Context, id string) error {
	items, err := q.load(ctx)
	if err != nil {
		return err
	}

	kept := items[:0:0]
	for _, m := range items {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	return q.save(ctx, kept)
}
