package routes

import (
	"encoding/json"
	"net/http"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/resolver"
	"github.com/codectx/codectx/internal/retriever"
)

// ContextHandler runs the Target Resolver followed by the Dependency-Aware
// Retriever: POST /context {query, targetFilePath?, tokenBudget?}.
func ContextHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query          string `json:"query"`
			TargetFilePath string `json:"targetFilePath"`
			TokenBudget    int    `json:"tokenBudget"`
			WalkDepth      int    `json:"walkDepth"`
			RelatedLimit   int    `json:"relatedLimit"`
			BreadthLimit   int    `json:"breadthLimit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}
		if req.TokenBudget <= 0 {
			req.TokenBudget = 8000
		}

		g := a.Manager.GetGraph()
		res := resolver.New(r.Context(), g, a.Embedder, a.CrossEncoder)
		resolution, err := res.Resolve(r.Context(), req.Query, resolver.Options{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		retr := retriever.New(g, res, a.Embedder)
		ctxResult, err := retr.Build(r.Context(), req.Query, req.TargetFilePath, req.TokenBudget, retriever.Options{
			WalkDepth:    req.WalkDepth,
			RelatedLimit: req.RelatedLimit,
			BreadthLimit: req.BreadthLimit,
		}, resolution)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ctxResult)
	}
}
