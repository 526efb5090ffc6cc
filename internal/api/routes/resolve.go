package routes

import (
	"encoding/json"
	"net/http"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/resolver"
)

// ResolveHandler runs the Target Resolver once over the current graph:
// POST /resolve {query, recentPaths?, limit?, seedCount?}.
func ResolveHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query   string   `json:"query"`
			Recent  []string `json:"recentPaths"`
			Limit   int      `json:"limit"`
			SeedLim int      `json:"seedCount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		g := a.Manager.GetGraph()
		res := resolver.New(r.Context(), g, a.Embedder, a.CrossEncoder)
		resolution, err := res.Resolve(r.Context(), req.Query, resolver.Options{
			RecentPaths: req.Recent,
			Limit:       req.Limit,
			SeedCount:   req.SeedLim,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, resolution)
	}
}
