package api

import (
	"net/http"

	"github.com/joestump/joe-writer/internal/catalog"
)

// templatesAPIHandler provides the GET /api/templates endpoint.
type templatesAPIHandler struct {
	catalog *catalog.Catalog
}

// List returns the template catalog, optionally filtered by a fuzzy query.
// GET /api/templates
//
// @Summary      List templates
// @Description  Returns use-case templates in catalog order, or best match first when q is set
// @Tags         Templates
// @Produce      json
// @Param        q    query     string  false  "Fuzzy search over titles and prompts"
// @Success      200  {object}  TemplateListResponse
// @Router       /templates [get]
func (h *templatesAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	var templates []catalog.UseCaseTemplate
	if h.catalog != nil {
		templates = h.catalog.Search(r.URL.Query().Get("q"))
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: catalog.Docs(templates)})
}
