package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps the cache in process memory. Entries never expire;
// the reconciliation engine owns their lifecycle.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		c: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

func (m *MemoryStore) Get(ctx context.Context, owner string, kind Kind) ([]byte, bool, error) {
	val, found := m.c.Get(storageKey(owner, kind))
	if !found {
		return nil, false, nil
	}

	raw, ok := val.([]byte)
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func (m *MemoryStore) Put(ctx context.Context, owner string, kind Kind, value []byte) error {
	m.c.Set(storageKey(owner, kind), value, gocache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, owner string, kind Kind) error {
	m.c.Delete(storageKey(owner, kind))
	return nil
}
