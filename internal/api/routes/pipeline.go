package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/evaluator"
	"github.com/codectx/codectx/internal/pipeline"
)

// PipelineRoutes exposes the iterative Pipeline: POST /pipeline/run
// {query, groundTruth?, config?}.
func PipelineRoutes(a *app.App) chi.Router {
	r := chi.NewRouter()
	r.Post("/run", runHandler(a))
	return r
}

func runHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query       string   `json:"query"`
			TargetFile  string   `json:"targetFile"`
			GroundTruth []string `json:"groundTruth"`
			Config      struct {
				PrecisionThreshold float64 `json:"precisionThreshold"`
				RecallThreshold    float64 `json:"recallThreshold"`
				CoverageThreshold  float64 `json:"coverageThreshold"`
			} `json:"config"`
			MaxIterations int `json:"maxIterations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		cfg := evaluator.Config{
			PrecisionThreshold: req.Config.PrecisionThreshold,
			RecallThreshold:    req.Config.RecallThreshold,
			CoverageThreshold:  req.Config.CoverageThreshold,
		}
		if cfg.PrecisionThreshold == 0 {
			cfg.PrecisionThreshold = 0.5
		}
		if cfg.RecallThreshold == 0 {
			cfg.RecallThreshold = 0.5
		}

		result, err := a.Pipeline.Run(r.Context(), req.Query, pipeline.Options{
			TargetFile:    req.TargetFile,
			GroundTruth:   req.GroundTruth,
			EvalConfig:    cfg,
			MaxIterations: req.MaxIterations,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
