package http

import (
	"log/slog"
	"net/http"

	"github.com/Kirito-012/Ancient-Health/internal/catalog"
	"github.com/Kirito-012/Ancient-Health/pkg/pagination"
)

// CatalogHandler handles the public catalog endpoints.
type CatalogHandler struct {
	service *catalog.Service
	logger  *slog.Logger
}

// NewCatalogHandler creates a catalog HTTP handler.
func NewCatalogHandler(service *catalog.Service, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, logger: logger}
}

// Products handles GET /api/products.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	result, err := h.service.Products(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: result})
}

// Categories handles GET /api/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: map[string]any{"categories": categories}})
}
