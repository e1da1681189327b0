package listing

import (
	"time"

	"github.com/mjoris/plaquier/internal/plate"
	"github.com/mjoris/plaquier/internal/platform/apperr"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// Tab selects one of the two top-level conception collections. They share
// most of their schema, but subcontracted rows carry the subcontractor name.
type Tab string

const (
	TabOwn           Tab = "own"
	TabSubcontracted Tab = "subcontracted"
)

// ParseTab validates a console-submitted tab value.
func ParseTab(raw string) (Tab, error) {
	switch Tab(raw) {
	case TabOwn, TabSubcontracted:
		return Tab(raw), nil
	default:
		return "", apperr.ValidationError("Unknown tab: " + raw)
	}
}

// Row is one top-level conception row. SubcontractorName is populated only on
// the subcontracted tab.
type Row struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	GeneratedCode     string    `json:"generated_code,omitempty"`
	ConcernCount      int       `json:"concern_count"`
	SubcontractorName string    `json:"subcontractor_name,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Detail is the expanded row's plate sub-list.
type Detail struct {
	ConceptionID string            `json:"conception_id"`
	Filters      map[string]string `json:"filters,omitempty"`
	Plates       []plate.Plate     `json:"plates"`
	Meta         pagination.Meta   `json:"meta"`
}

// Snapshot is the full list-view state handed to the console after every
// operation. Expanded is nil while no row is open.
type Snapshot struct {
	Tab      Tab               `json:"tab"`
	Filters  map[string]string `json:"filters,omitempty"`
	Rows     []Row             `json:"rows"`
	Meta     pagination.Meta   `json:"meta"`
	Expanded *Detail           `json:"expanded,omitempty"`
}
