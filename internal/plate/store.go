package plate

import (
	"context"

	"github.com/mjoris/plaquier/pkg/pagination"
)

// Repository is the inventory-service boundary for plates. Every write
// returns the server's canonical record, which replaces local state.
type Repository interface {
	ListPlates(context context.Context, conceptionID string, filters map[string]string, params pagination.Params) ([]Plate, pagination.Meta, error)
	CreatePlate(context context.Context, conceptionID string, form Form) (*Plate, error)
	UpdatePlate(context context.Context, plateID string, form Form) (*Plate, error)
	DeletePlate(context context.Context, plateID string) error
}
