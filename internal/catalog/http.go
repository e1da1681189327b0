package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/mjoris/plaquier/internal/platform/request"
	"github.com/mjoris/plaquier/internal/platform/respond"
)

type Handler struct {
	cache *Cache
}

func NewHandler(cache *Cache) *Handler {
	return &Handler{cache: cache}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/{kind}", handler.listCatalog)
}

// listCatalog serves the memoized reference list backing the console's
// autocomplete widgets.
func (handler *Handler) listCatalog(writer http.ResponseWriter, request *http.Request) {
	kind, err := ParseKind(requestutil.ID(request, "kind"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.cache.Load(request.Context(), kind))
}
