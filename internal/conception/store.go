package conception

import (
	"context"

	"github.com/mjoris/plaquier/internal/concern"
)

// CreateInput is the payload of an aggregate creation.
type CreateInput struct {
	Name            string
	Concerns        []concern.Concern
	SubcontractorID string // empty = none
	GeneratedCode   string // empty = none
}

// UpdateInput is the payload of an aggregate update.
type UpdateInput struct {
	Name           string
	Concerns       []concern.Concern
	Subcontractor  SubcontractorState
	DeletedFileIDs []string
	NewFiles       []Upload
}

// Repository is the persistence boundary of the aggregate: every operation
// lands on the remote inventory service, which is the store of record.
type Repository interface {
	CreateConception(context context.Context, input CreateInput) (string, error)
	UpdateConception(context context.Context, id string, input UpdateInput) (*UpdateResult, error)
	AttachFile(context context.Context, id string, file Upload) error
	ListSelect(context context.Context) ([]PickerItem, error)
}
