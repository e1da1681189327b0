package conception

import (
	"io"
	"sort"

	"github.com/mjoris/plaquier/internal/concern"
)

// Conception is a design template aggregating one or more client×product×pose
// relationships and owning a collection of physical plates.
type Conception struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Concerns        []concern.Concern `json:"concerns"`
	SubcontractorID *string           `json:"subcontractor_id"`
	GeneratedCode   *string           `json:"generated_code"`
	AttachedFiles   []FileRef         `json:"attached_files"`
}

// FileRef describes one attached file. ID is empty for newly attached,
// local-only files that have not been persisted yet.
type FileRef struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	SizeBytes  int64  `json:"size_bytes"`
	IsExisting bool   `json:"is_existing"`
}

// Upload is a new local file to be sent to the inventory service.
type Upload struct {
	Name      string
	SizeBytes int64
	Content   io.Reader
}

// PickerItem is one entry of the lightweight conception list used by
// linking flows and selection widgets.
type PickerItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UpdateResult is the outcome of an aggregate update. When RequiresRedirect
// is set, the caller must not reload local state and should hand control to
// the plate-editing flow for the same conception instead.
type UpdateResult struct {
	ConceptionID     string `json:"conception_id"`
	RequiresRedirect bool   `json:"requires_redirect"`
}

// # Subcontractor Tri-State

// SubcontractorState expresses the three distinct update intents for the
// subcontractor reference. Clearing must reach the wire as an explicit empty
// value — omission means "leave as is" server-side.
type SubcontractorState struct {
	present bool
	cleared bool
	id      string
}

// SubcontractorUnchanged leaves the stored reference untouched (field omitted).
func SubcontractorUnchanged() SubcontractorState {
	return SubcontractorState{}
}

// SubcontractorSet assigns the given subcontractor.
func SubcontractorSet(id string) SubcontractorState {
	return SubcontractorState{present: true, id: id}
}

// SubcontractorCleared removes the stored reference (explicit empty value).
func SubcontractorCleared() SubcontractorState {
	return SubcontractorState{present: true, cleared: true}
}

// Wire returns whether the field must be written at all, and the value to
// write when it must.
func (state SubcontractorState) Wire() (include bool, value string) {
	if !state.present {
		return false, ""
	}
	if state.cleared {
		return true, ""
	}
	return true, state.id
}

// # Deleted-File Bookkeeping

// FileDeletionSet records ids of existing files marked for deletion.
//
// Marking is idempotent: adding the same id twice has no additional effect.
// The set is submitted with the next aggregate update rather than deleting
// files immediately.
type FileDeletionSet struct {
	ids map[string]struct{}
}

// NewFileDeletionSet builds a set from any starting ids (duplicates collapse).
func NewFileDeletionSet(ids ...string) *FileDeletionSet {
	set := &FileDeletionSet{ids: make(map[string]struct{})}
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add marks one file id for deletion. Empty ids (local-only files) are ignored.
func (set *FileDeletionSet) Add(id string) {
	if id == "" {
		return
	}
	set.ids[id] = struct{}{}
}

// Len reports how many distinct files are marked.
func (set *FileDeletionSet) Len() int { return len(set.ids) }

// IDs returns the marked ids in stable order for serialization.
func (set *FileDeletionSet) IDs() []string {
	ids := make([]string, 0, len(set.ids))
	for id := range set.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
