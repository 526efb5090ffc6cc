// Package bench implements the Benchmark Runner: loads a dataset of
// named tasks, runs the Pipeline once per task, and writes a markdown
// report aggregating the Evaluation Agent's scores. A plain summary
// struct is populated as work completes and handed back to the caller
// to render.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codectx/codectx/internal/evaluator"
	"github.com/codectx/codectx/internal/pipeline"
)

// Task is one benchmark query with an optional ground truth and target
// anchor.
type Task struct {
	Name        string   `json:"name"`
	Query       string   `json:"query"`
	TargetFile  string   `json:"targetFile,omitempty"`
	GroundTruth []string `json:"groundTruth,omitempty"`
}

// Dataset is the benchmark input contract: a named, versioned collection
// of tasks.
type Dataset struct {
	Name    string `json:"name"`
	Family  string `json:"family"`
	Variant string `json:"variant"`
	Tasks   []Task `json:"tasks"`
}

// LoadDataset reads and parses a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bench: reading dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("bench: parsing dataset: %w", err)
	}
	return &ds, nil
}

// TaskResult is the outcome of running one task through the Pipeline.
type TaskResult struct {
	Task       Task
	Result     *pipeline.Result
	Err        error
	ElapsedSec float64
}

// Report is the aggregate outcome of a full dataset run.
type Report struct {
	Dataset       *Dataset
	Tasks         []TaskResult
	MeanPrecision float64
	MeanRecall    float64
	MeanF1        float64
	MeanCoverage  float64
	PassRate      float64
	GeneratedAt   time.Time
}

// Run executes every task in ds through p, in order, and aggregates the
// results. A task whose Pipeline.Run call errors is recorded with Err set
// and excluded from the aggregate means (but counted against PassRate).
func Run(ctx context.Context, p *pipeline.Pipeline, ds *Dataset) *Report {
	report := &Report{Dataset: ds, GeneratedAt: time.Now()}

	var sumP, sumR, sumF1, sumCov float64
	scored := 0
	passed := 0

	for _, task := range ds.Tasks {
		start := time.Now()
		result, err := p.Run(ctx, task.Query, pipeline.Options{
			TargetFile:  task.TargetFile,
			GroundTruth: task.GroundTruth,
			EvalConfig:  evaluator.Config{PrecisionThreshold: 0.5, RecallThreshold: 0.5},
		})
		elapsed := time.Since(start).Seconds()

		tr := TaskResult{Task: task, Result: result, Err: err, ElapsedSec: elapsed}
		report.Tasks = append(report.Tasks, tr)

		if err != nil {
			continue
		}
		sumP += result.Evaluation.Precision
		sumR += result.Evaluation.Recall
		sumF1 += result.Evaluation.F1
		sumCov += result.Evaluation.Coverage
		scored++
		if result.Evaluation.Pass {
			passed++
		}
	}

	if scored > 0 {
		report.MeanPrecision = sumP / float64(scored)
		report.MeanRecall = sumR / float64(scored)
		report.MeanF1 = sumF1 / float64(scored)
		report.MeanCoverage = sumCov / float64(scored)
	}
	if len(ds.Tasks) > 0 {
		report.PassRate = float64(passed) / float64(len(ds.Tasks))
	}

	return report
}

// WritePath returns the artifact path a report should be written to:
// .benchmark-artifacts/<family>-<variant>-<ts>.md.
func (r *Report) WritePath(ts string) string {
	return fmt.Sprintf(".benchmark-artifacts/%s-%s-%s.md", r.Dataset.Family, r.Dataset.Variant, ts)
}

// Render writes the report as markdown: an aggregate table followed by
// one section per task.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s/%s)\n\n", r.Dataset.Name, r.Dataset.Family, r.Dataset.Variant)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| mean precision | %.3f |\n", r.MeanPrecision)
	fmt.Fprintf(&b, "| mean recall | %.3f |\n", r.MeanRecall)
	fmt.Fprintf(&b, "| mean F1 | %.3f |\n", r.MeanF1)
	fmt.Fprintf(&b, "| mean coverage | %.3f |\n", r.MeanCoverage)
	fmt.Fprintf(&b, "| pass rate | %.1f%% |\n", r.PassRate*100)
	fmt.Fprintf(&b, "| tasks | %d |\n\n", len(r.Tasks))

	for _, tr := range r.Tasks {
		fmt.Fprintf(&b, "## %s\n\n", tr.Task.Name)
		fmt.Fprintf(&b, "- query: `%s`\n", tr.Task.Query)
		if tr.Err != nil {
			fmt.Fprintf(&b, "- error: %s\n\n", tr.Err)
			continue
		}
		fmt.Fprintf(&b, "- iterations: %d\n", tr.Result.Iterations)
		fmt.Fprintf(&b, "- precision: %.3f recall: %.3f coverage: %.3f\n", tr.Result.Evaluation.Precision, tr.Result.Evaluation.Recall, tr.Result.Evaluation.Coverage)
		fmt.Fprintf(&b, "- pass: %v\n", tr.Result.Evaluation.Pass)
		fmt.Fprintf(&b, "- elapsed: %.2fs\n\n", tr.ElapsedSec)
		fmt.Fprintf(&b, "### trace\n\n")
		for _, entry := range tr.Result.Trace.Entries {
			fmt.Fprintf(&b, "- `%s` %s (%s)\n", entry.Name, entry.Status, entry.Duration)
		}
		b.WriteString("\n")
	}

	return b.String()
}
