package conception

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjoris/plaquier/internal/concern"
	"github.com/mjoris/plaquier/internal/platform/apperr"
	requestutil "github.com/mjoris/plaquier/internal/platform/request"
	"github.com/mjoris/plaquier/internal/platform/respond"
	"github.com/mjoris/plaquier/pkg/slice"
)

// maxSubmissionBytes bounds an aggregate submission (fields + attachments).
const maxSubmissionBytes = 64 << 20

type Handler struct {
	service  *Service
	resolver *concern.Resolver
}

func NewHandler(service *Service, resolver *concern.Resolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/select", handler.listSelect)
	router.Post("/", handler.createConception)
	router.Put("/{id}", handler.updateConception)
}

// createConception handles the aggregate creation form: free-text relationship
// rows are resolved first, and any unresolved row rejects the whole submission
// before the inventory service is contacted.
func (handler *Handler) createConception(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(maxSubmissionBytes); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid multipart payload"))
		return
	}

	concerns, err := handler.resolveRows(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	input := CreateInput{
		Name:            request.FormValue("name"),
		Concerns:        concerns,
		SubcontractorID: request.FormValue("subcontractor_id"),
		GeneratedCode:   request.FormValue("generated_code"),
	}

	id, failedUploads, err := handler.service.Create(request.Context(), input, formUploads(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{
		"id":             id,
		"failed_uploads": failedUploads,
	})
}

// updateConception handles the aggregate edit form, including the tri-state
// subcontractor and the deleted-file id set.
func (handler *Handler) updateConception(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(maxSubmissionBytes); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid multipart payload"))
		return
	}

	concerns, err := handler.resolveRows(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subcontractor, err := parseSubcontractorState(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var deletedFileIDs []string
	if raw := request.FormValue("deleted_file_ids"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &deletedFileIDs); err != nil {
			respond.Error(writer, request, apperr.ValidationError("Invalid deleted_file_ids payload"))
			return
		}
	}

	input := UpdateInput{
		Name:           request.FormValue("name"),
		Concerns:       concerns,
		Subcontractor:  subcontractor,
		DeletedFileIDs: deletedFileIDs,
		NewFiles:       formUploads(request),
	}

	result, err := handler.service.Update(request.Context(), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// listSelect serves the lightweight conception picker.
func (handler *Handler) listSelect(writer http.ResponseWriter, request *http.Request) {
	items, err := handler.service.ListSelect(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, items)
}

// resolveRows decodes the relationship rows field and runs the resolver,
// mapping row errors onto field-level validation details.
func (handler *Handler) resolveRows(request *http.Request) ([]concern.Concern, error) {
	var rows []concern.Row
	if raw := request.FormValue("rows"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rows); err != nil {
			return nil, apperr.ValidationError("Invalid relationship rows payload")
		}
	}

	concerns, rowErrors := handler.resolver.Resolve(request.Context(), rows)
	if len(rowErrors) > 0 {
		details := slice.Map(rowErrors, func(rowError concern.RowError) apperr.FieldError {
			return apperr.FieldError{
				Field:   fmt.Sprintf("rows[%d].%s", rowError.Index, rowError.Side),
				Message: fmt.Sprintf("%q does not match any known %s", rowError.Text, rowError.Side),
			}
		})
		return nil, apperr.ValidationError("Unresolved relationship rows", details...)
	}

	return concerns, nil
}

// parseSubcontractorState reads the tri-state intent from the form.
func parseSubcontractorState(request *http.Request) (SubcontractorState, error) {
	switch state := request.FormValue("subcontractor_state"); state {
	case "", "unchanged":
		return SubcontractorUnchanged(), nil
	case "set":
		id := request.FormValue("subcontractor_id")
		if id == "" {
			return SubcontractorState{}, apperr.ValidationError("subcontractor_state=set requires subcontractor_id")
		}
		return SubcontractorSet(id), nil
	case "cleared":
		return SubcontractorCleared(), nil
	default:
		return SubcontractorState{}, apperr.ValidationError("Unknown subcontractor_state")
	}
}

// formUploads lifts the attached multipart files into [Upload] values.
func formUploads(request *http.Request) []Upload {
	if request.MultipartForm == nil {
		return nil
	}

	var uploads []Upload
	for _, header := range request.MultipartForm.File["files"] {
		uploads = append(uploads, uploadFromHeader(header))
	}
	return uploads
}

// uploadFromHeader defers opening until the repository streams the part.
func uploadFromHeader(header *multipart.FileHeader) Upload {
	return Upload{
		Name:      header.Filename,
		SizeBytes: header.Size,
		Content:   &lazyFile{header: header},
	}
}

// lazyFile opens the multipart part on first read so unattached parts cost nothing.
type lazyFile struct {
	header *multipart.FileHeader
	file   multipart.File
}

func (lazy *lazyFile) Read(p []byte) (int, error) {
	if lazy.file == nil {
		file, err := lazy.header.Open()
		if err != nil {
			return 0, err
		}
		lazy.file = file
	}
	return lazy.file.Read(p)
}
