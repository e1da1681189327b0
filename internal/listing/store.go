package listing

import (
	"context"

	"github.com/mjoris/plaquier/pkg/pagination"
)

// Directory is the inventory-service boundary for the top-level conception
// collections. The tab picks the collection; filters are column-scoped.
type Directory interface {
	ListConceptions(context context.Context, tab Tab, filters map[string]string, params pagination.Params) ([]Row, pagination.Meta, error)
}
