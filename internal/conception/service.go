package conception

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mjoris/plaquier/internal/catalog"
	"github.com/mjoris/plaquier/internal/concern"
	"github.com/mjoris/plaquier/internal/platform/apperr"
	"github.com/mjoris/plaquier/internal/platform/validate"
)

// Service owns the create/update lifecycle of the conception aggregate.
//
// It validates locally before any network call, delegates persistence to the
// repository, and invalidates the catalog cache after successful writes since
// an aggregate submission may have introduced new reference entities upstream.
type Service struct {
	repo    Repository
	catalog *catalog.Cache
	logger  *slog.Logger
}

func NewService(repo Repository, cache *catalog.Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: cache,
		logger:  logger,
	}
}

// Create persists a new conception, then uploads each new file as an
// independent second step.
//
// # Partial success
//
// The conception is the primary operation: a failed file upload is logged and
// reported in the returned count, but never rolls the creation back.
func (service *Service) Create(context context.Context, input CreateInput, files []Upload) (string, int, error) {
	if err := validateAggregate(input.Name, input.Concerns); err != nil {
		return "", 0, err
	}

	id, err := service.repo.CreateConception(context, input)
	if err != nil {
		return "", 0, err
	}

	service.logger.Info("conception_created",
		slog.String("conception_id", id),
		slog.Int("concerns", len(input.Concerns)),
	)

	// The aggregate may have introduced new clients/products upstream.
	service.catalog.Invalidate()

	failedUploads := 0
	for _, file := range files {
		if uploadErr := service.repo.AttachFile(context, id, file); uploadErr != nil {
			failedUploads++
			service.logger.Error("conception_file_upload_failed",
				slog.String("conception_id", id),
				slog.String("file", file.Name),
				slog.Any("error", uploadErr),
			)
		}
	}

	return id, failedUploads, nil
}

// Update persists the aggregate diff for an existing conception.
//
// Deleted-file ids pass through a [FileDeletionSet] so duplicate marks
// collapse before they reach the wire. When the result carries a redirect,
// the caller must not reload local state and should hand control to the
// plate-editing flow for this conception.
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*UpdateResult, error) {
	if id == "" {
		// UI gating makes this unreachable; reaching it is a programming
		// error, reported rather than retried.
		return nil, apperr.Internal(errors.New("conception: update without an active conception id"))
	}

	if err := validateAggregate(input.Name, input.Concerns); err != nil {
		return nil, err
	}

	input.DeletedFileIDs = NewFileDeletionSet(input.DeletedFileIDs...).IDs()

	result, err := service.repo.UpdateConception(context, id, input)
	if err != nil {
		return nil, err
	}

	service.logger.Info("conception_updated",
		slog.String("conception_id", id),
		slog.Bool("requires_redirect", result.RequiresRedirect),
		slog.Int("deleted_files", len(input.DeletedFileIDs)),
	)

	service.catalog.Invalidate()
	return result, nil
}

// ListSelect exposes the lightweight picker list.
func (service *Service) ListSelect(context context.Context) ([]PickerItem, error) {
	return service.repo.ListSelect(context)
}

// validateAggregate enforces the submission invariant: a non-empty name and
// at least one fully-resolved concern, rejected before any network call.
func validateAggregate(name string, concerns []concern.Concern) error {
	validator := &validate.Validator{}
	validator.Required("name", name).MaxLen("name", name, 200)
	validator.Custom("concerns", len(concerns) == 0, "At least one resolved relationship is required")

	for _, item := range concerns {
		if item.ClientID == "" || item.ProductID == "" {
			validator.Custom("concerns", true, "Every relationship must have a resolved client and product")
			break
		}
	}

	return validator.Err()
}
