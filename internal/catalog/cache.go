package catalog

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes catalog collections with lazy, single-flight loading.
//
// # Contract
//
//   - The first Load for a kind issues exactly one upstream query; concurrent
//     callers join the in-flight load instead of duplicating it.
//   - After a successful load, hits are served from memory until [Cache.Invalidate].
//   - A failed load degrades to an empty list and is not memoized, so a later
//     call may retry.
type Cache struct {
	loader Loader
	logger *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded map[Kind][]Entity
}

// NewCache constructs an empty cache over the given loader.
func NewCache(loader Loader, logger *slog.Logger) *Cache {
	return &Cache{
		loader: loader,
		logger: logger,
		loaded: make(map[Kind][]Entity),
	}
}

// Load returns the collection for kind, fetching it on first use.
//
// Upstream failure is not an error here: the caller receives an empty list
// (degraded, logged) and the cache stays cold for that kind.
func (cache *Cache) Load(context context.Context, kind Kind) []Entity {
	// Fast path: memoized hit, no query.
	cache.mu.RLock()
	entities, ok := cache.loaded[kind]
	cache.mu.RUnlock()
	if ok {
		return entities
	}

	// Single-flight: at most one outstanding load per kind.
	result, err, _ := cache.group.Do(string(kind), func() (any, error) {
		fetched, loadErr := cache.loader.LoadCatalog(context, kind)
		if loadErr != nil {
			return nil, loadErr
		}

		cache.mu.Lock()
		cache.loaded[kind] = fetched
		cache.mu.Unlock()
		return fetched, nil
	})

	if err != nil {
		cache.logger.Warn("catalog_load_degraded",
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
		return []Entity{}
	}

	return result.([]Entity)
}

// Invalidate drops every memoized collection.
//
// Called after a successful conception create/update, which may have
// introduced new clients, products, or subcontractors upstream.
func (cache *Cache) Invalidate() {
	cache.mu.Lock()
	cache.loaded = make(map[Kind][]Entity)
	cache.mu.Unlock()
}
