package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bmex-dev/leveldensity/internal/export"
)

type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*export.Table, bool, error) {
	v, found := m.cache.Get(id)
	if !found {
		return nil, false, nil
	}
	return cloneTable(v.(*export.Table)), true, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, table *export.Table) error {
	m.cache.SetDefault(id, cloneTable(table))
	return nil
}

func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}
