package handler

import (
	"encoding/json"
	"net/http"

	"github.com/joestump/joe-writer/internal/build"
	"github.com/joestump/joe-writer/internal/workspace"
)

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	Templates  int    `json:"templates"`
	Workspaces int    `json:"workspaces"`
}

// Health handles GET /healthz.
func Health(reg *workspace.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:     "ok",
			Version:    build.Version,
			Commit:     build.Commit,
			Workspaces: reg.Len(),
		}
		if cat := reg.Catalog(); cat != nil {
			resp.Templates = cat.Len()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
