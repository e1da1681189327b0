package plate

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjoris/plaquier/internal/platform/apperr"
	requestutil "github.com/mjoris/plaquier/internal/platform/request"
	"github.com/mjoris/plaquier/internal/platform/respond"
	"github.com/mjoris/plaquier/internal/platform/validate"
	"github.com/mjoris/plaquier/pkg/pagination"
)

// activationPageSize bounds the plate list loaded into the registry; a single
// conception realistically owns a handful of plates.
const activationPageSize = 200

type Handler struct {
	registry *Registry
	repo     Repository
}

func NewHandler(registry *Registry, repo Repository) *Handler {
	return &Handler{registry: registry, repo: repo}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/session", func(session chi.Router) {
		session.Get("/", handler.snapshot)
		session.Post("/activate", handler.activate)
		session.Post("/create", handler.startCreate)
		session.Post("/select", handler.selectPlate)
		session.Post("/field-change", handler.fieldChange)
		session.Post("/submit", handler.submit)
	})
	router.Delete("/{id}", handler.deletePlate)
}

func (handler *Handler) snapshot(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.registry.Snapshot())
}

// activate binds the registry to a conception, loading its plates fresh from
// the inventory service.
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		ConceptionID string `json:"conception_id"`
		ConcernCount int    `json:"concern_count"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("conception_id", payload.ConceptionID)
	validator.Min("concern_count", payload.ConcernCount, 0)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	plates, _, err := handler.repo.ListPlates(
		request.Context(),
		payload.ConceptionID,
		nil,
		pagination.Params{Page: 1, Limit: activationPageSize},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.registry.Activate(payload.ConceptionID, payload.ConcernCount, plates)
	respond.OK(writer, handler.registry.Snapshot())
}

func (handler *Handler) startCreate(writer http.ResponseWriter, request *http.Request) {
	if err := handler.registry.StartCreate(); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.registry.Snapshot())
}

// selectPlate opens a plate for edit; the displaced target, if any, is
// reported so the console can surface an unsaved-changes notice.
func (handler *Handler) selectPlate(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		PlateID string `json:"plate_id"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	previous, err := handler.registry.Select(payload.PlateID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"displaced_target": previous,
		"session":          handler.registry.Snapshot(),
	})
}

func (handler *Handler) fieldChange(writer http.ResponseWriter, request *http.Request) {
	handler.registry.FieldChanged()
	respond.OK(writer, handler.registry.Snapshot())
}

// submit routes the open form through the registry, which decides between
// create and update from the session mode.
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	var form Form
	if err := requestutil.DecodeJSON(request, &form); err != nil {
		respond.Error(writer, request, err)
		return
	}

	saved, err := handler.registry.Submit(request.Context(), form)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"plate":   saved,
		"session": handler.registry.Snapshot(),
	})
}

// deletePlate removes a plate; the confirm query flag is the explicit
// confirmation the registry demands.
func (handler *Handler) deletePlate(writer http.ResponseWriter, request *http.Request) {
	plateID := requestutil.ID(request, "id")
	if plateID == "" {
		respond.Error(writer, request, apperr.ValidationError("Missing plate id"))
		return
	}

	confirmed := request.URL.Query().Get("confirm") == "true"
	if err := handler.registry.Delete(request.Context(), plateID, confirmed); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.registry.Snapshot())
}
