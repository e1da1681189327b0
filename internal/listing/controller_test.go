package listing

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoris/plaquier/internal/plate"
	"github.com/mjoris/plaquier/pkg/pagination"
)

type directoryCall struct {
	tab     Tab
	filters map[string]string
	params  pagination.Params
}

// fakeDirectory records every call and answers through a per-test serve hook.
type fakeDirectory struct {
	mu    sync.Mutex
	calls []directoryCall
	serve func(context context.Context, call directoryCall) ([]Row, pagination.Meta, error)
}

func (fake *fakeDirectory) ListConceptions(context context.Context, tab Tab, filters map[string]string, params pagination.Params) ([]Row, pagination.Meta, error) {
	call := directoryCall{tab: tab, filters: filters, params: params}
	fake.mu.Lock()
	fake.calls = append(fake.calls, call)
	fake.mu.Unlock()

	if fake.serve != nil {
		return fake.serve(context, call)
	}
	return nil, pagination.NewMeta(params.Page, params.Limit, 0), nil
}

func (fake *fakeDirectory) callCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.calls)
}

func (fake *fakeDirectory) lastCall() directoryCall {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.calls[len(fake.calls)-1]
}

// fakeDetailRepo serves canned plates per conception and records list calls.
type fakeDetailRepo struct {
	mu      sync.Mutex
	calls   []detailCall
	byOwner map[string][]plate.Plate
}

type detailCall struct {
	conceptionID string
	filters      map[string]string
}

func (fake *fakeDetailRepo) ListPlates(_ context.Context, conceptionID string, filters map[string]string, params pagination.Params) ([]plate.Plate, pagination.Meta, error) {
	fake.mu.Lock()
	fake.calls = append(fake.calls, detailCall{conceptionID: conceptionID, filters: filters})
	fake.mu.Unlock()

	plates := fake.byOwner[conceptionID]
	return plates, pagination.NewMeta(params.Page, params.Limit, len(plates)), nil
}

func (fake *fakeDetailRepo) CreatePlate(_ context.Context, _ string, _ plate.Form) (*plate.Plate, error) {
	return nil, nil
}

func (fake *fakeDetailRepo) UpdatePlate(_ context.Context, _ string, _ plate.Form) (*plate.Plate, error) {
	return nil, nil
}

func (fake *fakeDetailRepo) DeletePlate(_ context.Context, _ string) error { return nil }

func (fake *fakeDetailRepo) callCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.calls)
}

func newTestController(directory Directory, repo plate.Repository, window time.Duration) (*Controller, *plate.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := plate.NewRegistry(repo, logger)
	return NewController(directory, repo, registry, logger, 10, window), registry
}

func pageRows(page int, ids ...string) []Row {
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, Row{ID: id, Name: "conception " + id, ConcernCount: page})
	}
	return rows
}

/*
TestController_Supersession verifies the ordering guarantee: when query B is
issued for the top scope while query A is still outstanding, A's response is
never rendered, even though A completes last.
*/
func TestController_Supersession(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	directory := &fakeDirectory{}
	directory.serve = func(queryContext context.Context, call directoryCall) ([]Row, pagination.Meta, error) {
		if call.params.Page == 2 {
			close(entered)
			select {
			case <-release:
				return pageRows(2, "stale-A"), pagination.NewMeta(2, 10, 30), nil
			case <-queryContext.Done():
				return nil, pagination.Meta{}, queryContext.Err()
			}
		}
		return pageRows(3, "fresh-B"), pagination.NewMeta(3, 10, 30), nil
	}

	controller, _ := newTestController(directory, &fakeDetailRepo{}, time.Millisecond)
	defer controller.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = controller.SetPage(context.Background(), 2)
	}()

	<-entered
	require.NoError(t, controller.SetPage(context.Background(), 3))

	close(release)
	<-done

	snapshot := controller.Snapshot()
	require.Len(t, snapshot.Rows, 1)
	assert.Equal(t, "fresh-B", snapshot.Rows[0].ID, "only the newest query per scope may render")
	assert.Equal(t, 3, snapshot.Meta.Page)
}

/*
TestController_DebounceCoalescing verifies that rapid filter edits inside the
quiet window collapse into exactly one query carrying the final filter values.
*/
func TestController_DebounceCoalescing(t *testing.T) {
	directory := &fakeDirectory{}
	controller, _ := newTestController(directory, &fakeDetailRepo{}, 30*time.Millisecond)
	defer controller.Close()

	for _, value := range []string{"c", "ch", "chi", "chic", "chicken"} {
		controller.SetFilters(context.Background(), map[string]string{"nom_conception": value})
	}

	assert.Eventually(t, func() bool {
		return directory.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, directory.callCount(), "edits inside the window must coalesce into one query")
	assert.Equal(t, "chicken", directory.lastCall().filters["nom_conception"])
	assert.Equal(t, 1, directory.lastCall().params.Page, "filter changes reset to the first page")
}

/*
TestController_SingleExpandedRow verifies that expanding a second row
collapses the first and rebinds the plate registry to the newly expanded
conception.
*/
func TestController_SingleExpandedRow(t *testing.T) {
	directory := &fakeDirectory{
		serve: func(_ context.Context, call directoryCall) ([]Row, pagination.Meta, error) {
			rows := []Row{
				{ID: "C-1", Name: "boxes", ConcernCount: 2},
				{ID: "C-2", Name: "wraps", ConcernCount: 1},
			}
			return rows, pagination.NewMeta(call.params.Page, call.params.Limit, 2), nil
		},
	}
	repo := &fakeDetailRepo{byOwner: map[string][]plate.Plate{
		"C-1": {{ID: "P-1", ConceptionID: "C-1", Number: "7"}},
		"C-2": {{ID: "P-2", ConceptionID: "C-2", Number: "9"}},
	}}

	controller, registry := newTestController(directory, repo, time.Millisecond)
	defer controller.Close()
	require.NoError(t, controller.SetPage(context.Background(), 1))

	require.NoError(t, controller.Expand(context.Background(), "C-1"))

	snapshot := controller.Snapshot()
	require.NotNil(t, snapshot.Expanded)
	assert.Equal(t, "C-1", snapshot.Expanded.ConceptionID)
	assert.Equal(t, "C-1", registry.Snapshot().ConceptionID)

	require.NoError(t, controller.Expand(context.Background(), "C-2"))

	snapshot = controller.Snapshot()
	require.NotNil(t, snapshot.Expanded)
	assert.Equal(t, "C-2", snapshot.Expanded.ConceptionID, "expanding a row collapses the previous one")
	require.Len(t, snapshot.Expanded.Plates, 1)
	assert.Equal(t, "P-2", snapshot.Expanded.Plates[0].ID)
	assert.Equal(t, "C-2", registry.Snapshot().ConceptionID, "the expanded row becomes the active edit scope")
}

func TestController_ExpandUnknownRow(t *testing.T) {
	controller, _ := newTestController(&fakeDirectory{}, &fakeDetailRepo{}, time.Millisecond)
	defer controller.Close()

	err := controller.Expand(context.Background(), "C-404")

	assert.Error(t, err)
	assert.Nil(t, controller.Snapshot().Expanded)
}

/*
TestController_DetailFilters verifies that per-row filter edits re-run only
that row's detail query, debounced, and leave the registry's unfiltered plate
snapshot untouched.
*/
func TestController_DetailFilters(t *testing.T) {
	directory := &fakeDirectory{
		serve: func(_ context.Context, call directoryCall) ([]Row, pagination.Meta, error) {
			return []Row{{ID: "C-1", ConcernCount: 1}}, pagination.NewMeta(call.params.Page, call.params.Limit, 1), nil
		},
	}
	repo := &fakeDetailRepo{byOwner: map[string][]plate.Plate{
		"C-1": {{ID: "P-1", ConceptionID: "C-1", Number: "7"}, {ID: "P-2", ConceptionID: "C-1", Number: "8"}},
	}}

	controller, registry := newTestController(directory, repo, 20*time.Millisecond)
	defer controller.Close()
	require.NoError(t, controller.SetPage(context.Background(), 1))
	require.NoError(t, controller.Expand(context.Background(), "C-1"))

	topCalls := directory.callCount()
	detailCalls := repo.callCount()

	require.NoError(t, controller.SetDetailFilters(context.Background(), map[string]string{"statut": "printing"}))
	require.NoError(t, controller.SetDetailFilters(context.Background(), map[string]string{"statut": "ordered"}))

	assert.Eventually(t, func() bool {
		return repo.callCount() == detailCalls+1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, topCalls, directory.callCount(), "detail filters must not re-run the top scope")
	assert.Len(t, registry.Snapshot().Plates, 2, "filtered reloads never shrink the registry snapshot")

	repo.mu.Lock()
	last := repo.calls[len(repo.calls)-1]
	repo.mu.Unlock()
	assert.Equal(t, "ordered", last.filters["statut"])
}

func TestController_DetailFiltersWithoutExpansion(t *testing.T) {
	controller, _ := newTestController(&fakeDirectory{}, &fakeDetailRepo{}, time.Millisecond)
	defer controller.Close()

	err := controller.SetDetailFilters(context.Background(), map[string]string{"statut": "printing"})

	assert.Error(t, err)
}

/*
TestController_TabSwitch verifies that switching collections resets the page
and filters, collapses the expanded row, and queries the other collection.
*/
func TestController_TabSwitch(t *testing.T) {
	directory := &fakeDirectory{
		serve: func(_ context.Context, call directoryCall) ([]Row, pagination.Meta, error) {
			return []Row{{ID: "C-1", ConcernCount: 1}}, pagination.NewMeta(call.params.Page, call.params.Limit, 1), nil
		},
	}
	repo := &fakeDetailRepo{byOwner: map[string][]plate.Plate{"C-1": {{ID: "P-1", Number: "7"}}}}

	controller, _ := newTestController(directory, repo, time.Millisecond)
	defer controller.Close()
	require.NoError(t, controller.SetPage(context.Background(), 4))
	require.NoError(t, controller.Expand(context.Background(), "C-1"))

	require.NoError(t, controller.SetTab(context.Background(), "subcontracted"))

	snapshot := controller.Snapshot()
	assert.Equal(t, TabSubcontracted, snapshot.Tab)
	assert.Nil(t, snapshot.Expanded, "tab switches collapse the expanded row")
	assert.Empty(t, snapshot.Filters)

	last := directory.lastCall()
	assert.Equal(t, TabSubcontracted, last.tab)
	assert.Equal(t, 1, last.params.Page, "tab switches restart at the first page")

	_, err := ParseTab("archived")
	assert.Error(t, err)
}
