package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mjoris/plaquier/internal/plate"
	"github.com/mjoris/plaquier/internal/platform/apperr"
	"github.com/mjoris/plaquier/internal/platform/remerr"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// Controller owns the hierarchical conception list: one paginated, filterable
// top-level scope per tab, and at most one expanded row with its own plate
// detail scope.
//
// # Concurrency
//
// Each scope (top list, expanded row's detail) holds one cancellation token
// and a generation counter. Issuing a new query for a scope cancels the
// outstanding one and bumps the generation; a response is applied only if its
// generation is still current, so the newest query per scope always wins
// regardless of arrival order. Text-filter edits are debounced: edits inside
// the quiet window reset the timer and produce a single query.
type Controller struct {
	directory Directory
	plates    plate.Repository
	registry  *plate.Registry
	logger    *slog.Logger
	pageSize  int

	topDebounce    *debouncer
	detailDebounce *debouncer

	mu      sync.Mutex
	tab     Tab
	filters map[string]string
	page    int
	rows    []Row
	meta    pagination.Meta

	expandedID    string
	detailFilters map[string]string
	detailPlates  []plate.Plate
	detailMeta    pagination.Meta

	topGen       uint64
	topCancel    context.CancelFunc
	detailGen    uint64
	detailCancel context.CancelFunc
}

func NewController(directory Directory, plates plate.Repository, registry *plate.Registry, logger *slog.Logger, pageSize int, debounceWindow time.Duration) *Controller {
	return &Controller{
		directory:      directory,
		plates:         plates,
		registry:       registry,
		logger:         logger,
		pageSize:       pageSize,
		topDebounce:    newDebouncer(debounceWindow),
		detailDebounce: newDebouncer(debounceWindow),
		tab:            TabOwn,
		page:           1,
	}
}

// Snapshot returns the current view state.
func (controller *Controller) Snapshot() Snapshot {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	snapshot := Snapshot{
		Tab:     controller.tab,
		Filters: cloneFilters(controller.filters),
		Rows:    append([]Row(nil), controller.rows...),
		Meta:    controller.meta,
	}
	if controller.expandedID != "" {
		snapshot.Expanded = &Detail{
			ConceptionID: controller.expandedID,
			Filters:      cloneFilters(controller.detailFilters),
			Plates:       append([]plate.Plate(nil), controller.detailPlates...),
			Meta:         controller.detailMeta,
		}
	}
	return snapshot
}

// # Operations

// SetTab switches collections, resetting pagination and filters and
// collapsing any expanded row, then reloads the top scope.
func (controller *Controller) SetTab(context context.Context, raw string) error {
	tab, err := ParseTab(raw)
	if err != nil {
		return err
	}

	controller.mu.Lock()
	controller.tab = tab
	controller.page = 1
	controller.filters = nil
	controller.collapseLocked()
	controller.mu.Unlock()

	return controller.refreshTop(context)
}

// SetPage jumps to a page of the current scope.
func (controller *Controller) SetPage(context context.Context, page int) error {
	if page < 1 {
		return apperr.ValidationError("Page must be at least 1")
	}

	controller.mu.Lock()
	controller.page = page
	controller.mu.Unlock()

	return controller.refreshTop(context)
}

// SetFilters replaces the top-level column filters and schedules a debounced
// reload. The snapshot keeps showing the previous rows until the quiet
// window elapses and the single coalesced query lands.
func (controller *Controller) SetFilters(trigger context.Context, filters map[string]string) {
	controller.mu.Lock()
	controller.filters = cloneFilters(filters)
	controller.page = 1
	controller.mu.Unlock()

	// The request context dies with the HTTP response; keep its values
	// (bearer, request id) but not its deadline for the deferred query.
	background := context.WithoutCancel(trigger)
	controller.topDebounce.Trigger(func() {
		if err := controller.refreshTop(background); err != nil {
			controller.logger.Error("list_refresh_failed", slog.String("error", err.Error()))
		}
	})
}

// Expand opens one row's plate detail, collapsing whichever row was open.
// The first successful unfiltered load also binds the plate registry to the
// expanded conception, making it the active edit scope.
func (controller *Controller) Expand(context context.Context, conceptionID string) error {
	controller.mu.Lock()
	row, found := controller.findRow(conceptionID)
	if !found {
		controller.mu.Unlock()
		return apperr.NotFound("Conception")
	}
	controller.collapseLocked()
	controller.expandedID = conceptionID
	controller.mu.Unlock()

	if err := controller.refreshDetail(context, conceptionID); err != nil {
		return err
	}

	controller.mu.Lock()
	activate := controller.expandedID == conceptionID
	plates := append([]plate.Plate(nil), controller.detailPlates...)
	controller.mu.Unlock()

	if activate {
		controller.registry.Activate(conceptionID, row.ConcernCount, plates)
	}
	return nil
}

// SetDetailFilters replaces the expanded row's filters and schedules a
// debounced re-query of that row's detail scope only. Filtered reloads never
// touch the plate registry: its snapshot stays the full unfiltered set.
func (controller *Controller) SetDetailFilters(trigger context.Context, filters map[string]string) error {
	controller.mu.Lock()
	conceptionID := controller.expandedID
	if conceptionID == "" {
		controller.mu.Unlock()
		return apperr.Unprocessable("No row is expanded")
	}
	controller.detailFilters = cloneFilters(filters)
	controller.mu.Unlock()

	background := context.WithoutCancel(trigger)
	controller.detailDebounce.Trigger(func() {
		if err := controller.refreshDetail(background, conceptionID); err != nil {
			controller.logger.Error("detail_refresh_failed",
				slog.String("conception_id", conceptionID),
				slog.String("error", err.Error()),
			)
		}
	})
	return nil
}

// Collapse closes the expanded row and cancels its outstanding query.
func (controller *Controller) Collapse() {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.collapseLocked()
}

// Close cancels every outstanding query and pending debounce.
func (controller *Controller) Close() {
	controller.topDebounce.Stop()
	controller.detailDebounce.Stop()

	controller.mu.Lock()
	defer controller.mu.Unlock()
	if controller.topCancel != nil {
		controller.topCancel()
		controller.topCancel = nil
	}
	controller.collapseLocked()
}

// # Scope refresh

// refreshTop issues the top-level query for the current tab/page/filters.
// Superseded responses (a newer generation exists by completion) and
// cancellations are silently discarded.
func (controller *Controller) refreshTop(trigger context.Context) error {
	controller.mu.Lock()
	if controller.topCancel != nil {
		controller.topCancel()
	}
	controller.topGen++
	generation := controller.topGen
	queryContext, cancel := context.WithCancel(context.WithoutCancel(trigger))
	controller.topCancel = cancel
	tab := controller.tab
	filters := cloneFilters(controller.filters)
	params := pagination.Params{Page: controller.page, Limit: controller.pageSize}
	controller.mu.Unlock()

	rows, meta, err := controller.directory.ListConceptions(queryContext, tab, filters, params)

	controller.mu.Lock()
	defer controller.mu.Unlock()

	if generation != controller.topGen {
		return nil
	}
	controller.topCancel = nil
	cancel()

	if err != nil {
		if remerr.IsCanceled(err) {
			return nil
		}
		return err
	}

	controller.rows = rows
	controller.meta = meta
	return nil
}

// refreshDetail issues the expanded row's plate query. The response is
// discarded when superseded or when the row is no longer the expanded one.
func (controller *Controller) refreshDetail(trigger context.Context, conceptionID string) error {
	controller.mu.Lock()
	if controller.detailCancel != nil {
		controller.detailCancel()
	}
	controller.detailGen++
	generation := controller.detailGen
	queryContext, cancel := context.WithCancel(context.WithoutCancel(trigger))
	controller.detailCancel = cancel
	filters := cloneFilters(controller.detailFilters)
	params := pagination.Params{Page: 1, Limit: controller.pageSize}
	controller.mu.Unlock()

	plates, meta, err := controller.plates.ListPlates(queryContext, conceptionID, filters, params)

	controller.mu.Lock()
	defer controller.mu.Unlock()

	if generation != controller.detailGen || controller.expandedID != conceptionID {
		return nil
	}
	controller.detailCancel = nil
	cancel()

	if err != nil {
		if remerr.IsCanceled(err) {
			return nil
		}
		return err
	}

	controller.detailPlates = plates
	controller.detailMeta = meta
	return nil
}

// # Internals (caller holds the lock)

func (controller *Controller) collapseLocked() {
	if controller.detailCancel != nil {
		controller.detailCancel()
		controller.detailCancel = nil
	}
	controller.detailGen++
	controller.expandedID = ""
	controller.detailFilters = nil
	controller.detailPlates = nil
	controller.detailMeta = pagination.Meta{}
}

func (controller *Controller) findRow(conceptionID string) (Row, bool) {
	for _, row := range controller.rows {
		if row.ID == conceptionID {
			return row, true
		}
	}
	return Row{}, false
}

func cloneFilters(filters map[string]string) map[string]string {
	if len(filters) == 0 {
		return nil
	}
	clone := make(map[string]string, len(filters))
	for column, value := range filters {
		clone[column] = value
	}
	return clone
}
