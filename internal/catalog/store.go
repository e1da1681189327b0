package catalog

import "context"

// Loader fetches one catalog collection from the inventory service.
type Loader interface {
	LoadCatalog(context context.Context, kind Kind) ([]Entity, error)
}
