package plate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mjoris/plaquier/internal/platform/apperr"
	"github.com/mjoris/plaquier/internal/platform/validate"
)

// Mode is the registry's edit-session state.
type Mode string

const (
	// ModeIdle: no edit target, form closed or blank.
	ModeIdle Mode = "idle"
	// ModeCreating: a new plate form is open, no target yet.
	ModeCreating Mode = "creating"
	// ModeEditing: an existing plate is open for edit.
	ModeEditing Mode = "editing"
)

// Registry owns the plates of the active conception and the single shared
// edit session.
//
// # Invariants
//
//   - At most one plate is open for edit at any time, process-wide.
//   - No plate is created while the active conception has zero resolved concerns.
//   - Plate numbers are unique within the conception by trimmed exact string
//     comparison ("007" and "7" are distinct numbers).
//   - After every successful write, the server's canonical record replaces
//     the local one; optimistic local edits are never trusted past the write.
type Registry struct {
	repo   Repository
	logger *slog.Logger

	mu           sync.Mutex
	conceptionID string
	concernCount int
	plates       []Plate

	mode   Mode
	target string // plate id, only in ModeEditing
	dirty  bool
}

// View is an immutable snapshot of the registry for presentation.
type View struct {
	ConceptionID string  `json:"conception_id"`
	Mode         Mode    `json:"mode"`
	TargetID     string  `json:"target_id,omitempty"`
	Dirty        bool    `json:"dirty"`
	Plates       []Plate `json:"plates"`
}

func NewRegistry(repo Repository, logger *slog.Logger) *Registry {
	return &Registry{
		repo:   repo,
		logger: logger,
		mode:   ModeIdle,
	}
}

// Activate binds the registry to a conception and its reconciled plate list,
// discarding any previous session outright.
func (registry *Registry) Activate(conceptionID string, concernCount int, plates []Plate) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.conceptionID = conceptionID
	registry.concernCount = concernCount
	registry.plates = plates
	registry.resetSession()
}

// Reconcile replaces the known plate list with fresh server state without
// touching the edit session.
func (registry *Registry) Reconcile(plates []Plate) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.plates = plates
}

// Snapshot returns the current view.
func (registry *Registry) Snapshot() View {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	plates := make([]Plate, len(registry.plates))
	copy(plates, registry.plates)

	return View{
		ConceptionID: registry.conceptionID,
		Mode:         registry.mode,
		TargetID:     registry.target,
		Dirty:        registry.dirty,
		Plates:       plates,
	}
}

// # Transitions

// StartCreate opens a blank create form.
//
// Rejected locally, with no network call, while no conception is active or
// the active conception has no resolved concern.
func (registry *Registry) StartCreate() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.conceptionID == "" {
		return apperr.Unprocessable("No active conception")
	}
	if registry.concernCount == 0 {
		return apperr.Unprocessable("The conception needs at least one resolved relationship before plates can be added")
	}

	registry.mode = ModeCreating
	registry.target = ""
	registry.dirty = false
	return nil
}

// Select opens an existing plate for edit, populating the form from its last
// known snapshot. The save control starts disabled (dirty=false).
//
// Selecting while already editing replaces the target outright — unsaved
// changes on the previous target are discarded without confirmation. The
// previous target id is returned so callers may build a confirmation flow.
func (registry *Registry) Select(plateID string) (previous string, err error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, found := registry.find(plateID); !found {
		return "", apperr.NotFound("Plate")
	}

	previous = ""
	if registry.mode == ModeEditing && registry.target != plateID {
		previous = registry.target
	}

	registry.mode = ModeEditing
	registry.target = plateID
	registry.dirty = false
	return previous, nil
}

// FieldChanged flips the binary dirty flag, enabling save. Field-level
// tracking is deliberately absent: any change arms the whole form.
func (registry *Registry) FieldChanged() {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.mode == ModeEditing || registry.mode == ModeCreating {
		registry.dirty = true
	}
}

// Submit routes the open form to the create or update flow depending on the
// session mode.
func (registry *Registry) Submit(context context.Context, form Form) (*Plate, error) {
	registry.mu.Lock()
	mode := registry.mode
	registry.mu.Unlock()

	switch mode {
	case ModeCreating:
		return registry.submitCreate(context, form)
	case ModeEditing:
		return registry.submitEdit(context, form)
	default:
		return nil, apperr.Unprocessable("No plate form is open")
	}
}

// submitCreate validates and persists a new plate, then appends the server's
// canonical record and returns to idle.
func (registry *Registry) submitCreate(context context.Context, form Form) (*Plate, error) {
	registry.mu.Lock()
	conceptionID := registry.conceptionID
	if err := registry.validateForm(form, ""); err != nil {
		registry.mu.Unlock()
		return nil, err
	}
	registry.mu.Unlock()

	created, err := registry.repo.CreatePlate(context, conceptionID, form)
	if err != nil {
		return nil, err
	}

	registry.mu.Lock()
	registry.plates = append(registry.plates, *created)
	registry.resetSession()
	registry.mu.Unlock()

	registry.logger.Info("plate_created",
		slog.String("conception_id", conceptionID),
		slog.String("plate_id", created.ID),
		slog.String("number", created.Number),
	)
	return created, nil
}

// submitEdit re-validates (excluding the edited plate from the duplicate
// check), persists, replaces the local snapshot with the server record, and
// returns to idle.
func (registry *Registry) submitEdit(context context.Context, form Form) (*Plate, error) {
	registry.mu.Lock()
	if !registry.dirty {
		registry.mu.Unlock()
		return nil, apperr.Unprocessable("No changes to save")
	}
	target := registry.target
	if err := registry.validateForm(form, target); err != nil {
		registry.mu.Unlock()
		return nil, err
	}
	registry.mu.Unlock()

	updated, err := registry.repo.UpdatePlate(context, target, form)
	if err != nil {
		return nil, err
	}

	registry.mu.Lock()
	if index, found := registry.find(target); found {
		if updated.ConceptionID == "" {
			updated.ConceptionID = registry.plates[index].ConceptionID
		}
		registry.plates[index] = *updated
	}
	registry.resetSession()
	registry.mu.Unlock()

	registry.logger.Info("plate_updated",
		slog.String("plate_id", updated.ID),
		slog.String("number", updated.Number),
	)
	return updated, nil
}

// Delete removes a plate after explicit confirmation.
//
// A plate that never received a server id is removed locally without a
// network call (not reachable through the normal flow, but handled). If the
// target is currently open for edit, the session is forced back to idle
// before the delete is issued; the row itself is only removed after the
// server confirms.
func (registry *Registry) Delete(context context.Context, plateID string, confirmed bool) error {
	if !confirmed {
		return apperr.Unprocessable("Plate deletion requires explicit confirmation")
	}

	registry.mu.Lock()
	index, found := registry.find(plateID)
	if !found {
		registry.mu.Unlock()
		return apperr.NotFound("Plate")
	}

	if registry.mode == ModeEditing && registry.target == plateID {
		registry.resetSession()
	}

	if registry.plates[index].ID == "" {
		registry.plates = append(registry.plates[:index], registry.plates[index+1:]...)
		registry.mu.Unlock()
		return nil
	}
	registry.mu.Unlock()

	if err := registry.repo.DeletePlate(context, plateID); err != nil {
		return err
	}

	registry.mu.Lock()
	if index, found := registry.find(plateID); found {
		registry.plates = append(registry.plates[:index], registry.plates[index+1:]...)
	}
	registry.mu.Unlock()

	registry.logger.Warn("plate_deleted", slog.String("plate_id", plateID))
	return nil
}

// # Internals (caller holds the lock)

func (registry *Registry) resetSession() {
	registry.mode = ModeIdle
	registry.target = ""
	registry.dirty = false
}

// find locates a plate by id. Blank ids never match: never-persisted entries
// are not addressable by id.
func (registry *Registry) find(plateID string) (int, bool) {
	if plateID == "" {
		return 0, false
	}
	for index, plate := range registry.plates {
		if plate.ID == plateID {
			return index, true
		}
	}
	return 0, false
}

// validateForm enforces the plate submission rules: number and machine
// present, status known, number unique among the conception's other plates.
func (registry *Registry) validateForm(form Form, excludeID string) error {
	validator := &validate.Validator{}
	validator.Required("number", form.Number)
	validator.Required("machine_id", form.MachineID)
	if form.Status != "" {
		validator.OneOf("status", string(form.Status), StatusStrings()...)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	number := strings.TrimSpace(form.Number)
	for _, plate := range registry.plates {
		if excludeID != "" && plate.ID == excludeID {
			continue
		}
		if strings.TrimSpace(plate.Number) == number {
			return apperr.Conflict("A plate numbered " + number + " already exists for this conception")
		}
	}
	return nil
}
