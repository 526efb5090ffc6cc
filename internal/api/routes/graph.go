package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codectx/codectx/internal/app"
)

// GraphRoutes exposes the Graph Manager's lifecycle operations: build,
// modify, merge, discard.
func GraphRoutes(a *app.App) chi.Router {
	r := chi.NewRouter()

	r.Post("/build", buildHandler(a))
	r.Post("/modify", modifyHandler(a))
	r.Post("/merge", mergeHandler(a))
	r.Post("/discard", discardHandler(a))

	return r
}

// buildHandler (re)builds the graph rooted at the path the Manager was
// constructed with; there is no per-request root override.
func buildHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ForceRebuild bool `json:"forceRebuild"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := a.Manager.Initialize(r.Context(), req.ForceRebuild); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		g := a.Manager.GetGraph()
		writeJSON(w, http.StatusOK, map[string]any{
			"nodeCount": g.NodeCount(),
			"edgeCount": g.EdgeCount(),
		})
	}
}

func modifyHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Path == "" {
			writeError(w, http.StatusBadRequest, "path is required")
			return
		}

		if err := a.Manager.RecordFileModification(r.Context(), req.Path); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
	}
}

func mergeHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Manager.MergeOverlay(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "merged"})
	}
}

func discardHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.Manager.DiscardOverlay()
		writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
	}
}
