package catalog

import "github.com/mjoris/plaquier/internal/platform/apperr"

// Kind identifies one of the read-only reference collections.
type Kind string

const (
	KindClient        Kind = "clients"
	KindProduct       Kind = "products"
	KindMachine       Kind = "machines"
	KindSubcontractor Kind = "subcontractors"
)

// Kinds lists every catalog collection, in display order.
var Kinds = []Kind{KindClient, KindProduct, KindMachine, KindSubcontractor}

// Entity is one catalog entry, already normalized from whatever key names the
// inventory service used for this collection.
type Entity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ParseKind maps a URL segment onto a [Kind].
func ParseKind(raw string) (Kind, error) {
	for _, kind := range Kinds {
		if string(kind) == raw {
			return kind, nil
		}
	}
	return "", apperr.NotFound("Catalog " + raw)
}
