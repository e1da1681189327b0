package listing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/mjoris/plaquier/internal/platform/request"
	"github.com/mjoris/plaquier/internal/platform/respond"
	"github.com/mjoris/plaquier/internal/platform/validate"
	"github.com/mjoris/plaquier/pkg/convert"
	"github.com/mjoris/plaquier/pkg/query"
)

// Handler exposes the list-view operations. Every mutation answers with the
// post-operation snapshot so the console renders from one source of truth.
type Handler struct {
	controller *Controller
}

func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.snapshot)
	router.Post("/tab", handler.setTab)
	router.Post("/page", handler.setPage)
	router.Post("/filters", handler.setFilters)
	router.Post("/expand", handler.expand)
	router.Post("/detail-filters", handler.setDetailFilters)
	router.Post("/collapse", handler.collapse)
}

func (handler *Handler) snapshot(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.controller.Snapshot())
}

func (handler *Handler) setTab(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Tab string `json:"tab"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.controller.SetTab(request.Context(), payload.Tab); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.controller.Snapshot())
}

// setPage reads the target page from the "page" query parameter.
func (handler *Handler) setPage(writer http.ResponseWriter, request *http.Request) {
	page := convert.ToIntD(request.URL.Query().Get("page"), 0)

	if err := handler.controller.SetPage(request.Context(), page); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.controller.Snapshot())
}

// setFilters reads "filter_<column>" query parameters. It is debounced
// engine-side: the response snapshot still shows the previous rows, and the
// coalesced query lands after the quiet window.
func (handler *Handler) setFilters(writer http.ResponseWriter, request *http.Request) {
	handler.controller.SetFilters(request.Context(), query.Filters(request.URL.Query()))
	respond.OK(writer, handler.controller.Snapshot())
}

func (handler *Handler) expand(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		ConceptionID string `json:"conception_id"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("conception_id", payload.ConceptionID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.controller.Expand(request.Context(), payload.ConceptionID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.controller.Snapshot())
}

// setDetailFilters reads "filter_<column>" query parameters for the expanded
// row's plate sub-query.
func (handler *Handler) setDetailFilters(writer http.ResponseWriter, request *http.Request) {
	if err := handler.controller.SetDetailFilters(request.Context(), query.Filters(request.URL.Query())); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.controller.Snapshot())
}

func (handler *Handler) collapse(writer http.ResponseWriter, request *http.Request) {
	handler.controller.Collapse()
	respond.OK(writer, handler.controller.Snapshot())
}
