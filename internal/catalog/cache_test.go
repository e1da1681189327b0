package catalog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoris/plaquier/internal/catalog"
)

// fakeLoader counts upstream queries and can be told to fail.
type fakeLoader struct {
	calls   atomic.Int32
	failing atomic.Bool
	release chan struct{} // when set, LoadCatalog blocks until closed
}

func (loader *fakeLoader) LoadCatalog(_ context.Context, kind catalog.Kind) ([]catalog.Entity, error) {
	loader.calls.Add(1)
	if loader.release != nil {
		<-loader.release
	}
	if loader.failing.Load() {
		return nil, errors.New("inventory unreachable")
	}
	return []catalog.Entity{
		{ID: "CL-1", DisplayName: "Chicken Street"},
		{ID: "CL-2", DisplayName: "Boulangerie Morel"},
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestCache_MemoizesAfterFirstLoad verifies that a successful load is served
from memory on subsequent calls without re-querying.
*/
func TestCache_MemoizesAfterFirstLoad(t *testing.T) {
	loader := &fakeLoader{}
	cache := catalog.NewCache(loader, testLogger())

	first := cache.Load(context.Background(), catalog.KindClient)
	require.Len(t, first, 2)

	second := cache.Load(context.Background(), catalog.KindClient)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), loader.calls.Load(), "second hit must not re-query")
}

/*
TestCache_SingleFlight verifies that concurrent first loads for one kind
collapse into exactly one upstream query.
*/
func TestCache_SingleFlight(t *testing.T) {
	loader := &fakeLoader{release: make(chan struct{})}
	cache := catalog.NewCache(loader, testLogger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]catalog.Entity, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = cache.Load(context.Background(), catalog.KindProduct)
		}(i)
	}

	close(loader.release)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load(), "concurrent callers must share one flight")
	for _, result := range results {
		assert.Len(t, result, 2)
	}
}

/*
TestCache_FailureDegradesThenRetries verifies the warm-up failure contract:
an empty list is returned, nothing is memoized, and a later call retries.
*/
func TestCache_FailureDegradesThenRetries(t *testing.T) {
	loader := &fakeLoader{}
	loader.failing.Store(true)
	cache := catalog.NewCache(loader, testLogger())

	degraded := cache.Load(context.Background(), catalog.KindMachine)
	assert.Empty(t, degraded)
	assert.Equal(t, int32(1), loader.calls.Load())

	// Upstream recovers; the next call must issue a fresh query.
	loader.failing.Store(false)
	recovered := cache.Load(context.Background(), catalog.KindMachine)
	assert.Len(t, recovered, 2)
	assert.Equal(t, int32(2), loader.calls.Load())
}

/*
TestCache_Invalidate verifies that invalidation forces a reload on next use.
*/
func TestCache_Invalidate(t *testing.T) {
	loader := &fakeLoader{}
	cache := catalog.NewCache(loader, testLogger())

	cache.Load(context.Background(), catalog.KindClient)
	cache.Invalidate()
	cache.Load(context.Background(), catalog.KindClient)

	assert.Equal(t, int32(2), loader.calls.Load())
}

/*
TestParseKind rejects unknown catalog segments.
*/
func TestParseKind(t *testing.T) {
	kind, err := catalog.ParseKind("clients")
	require.NoError(t, err)
	assert.Equal(t, catalog.KindClient, kind)

	_, err = catalog.ParseKind("vehicles")
	assert.Error(t, err)
}
