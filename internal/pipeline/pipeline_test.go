package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codectx/codectx/internal/evaluator"
	"github.com/codectx/codectx/internal/manager"
	"github.com/codectx/codectx/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "util.go"), "package util\n\nfunc Add(a, b int) int { return a + b }\n")
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n\nfunc Run() int { return Add(1, 2) }\n")

	m := manager.New(dir, store.NewMemoryStore(), nil, nil, manager.Hooks{})
	if err := m.Initialize(context.Background(), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return New(m, nil, nil), dir
}

func TestRun_ProducesContextAndEvaluation(t *testing.T) {
	p, _ := newTestPipeline(t)
	result, err := p.Run(context.Background(), "how does Run use Add", Options{
		TargetFile: "main.go",
		EvalConfig: evaluator.Config{PrecisionThreshold: 0.1, RecallThreshold: 0.1},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Context == nil {
		t.Fatal("expected a built context")
	}
	if result.Iterations < 1 {
		t.Fatalf("expected at least one iteration, got %d", result.Iterations)
	}
	if len(result.Trace.Entries) == 0 {
		t.Fatal("expected trace entries")
	}
	if result.Trace.Entries[0].Name != "graph.load" {
		t.Fatalf("expected first trace entry to be graph.load, got %s", result.Trace.Entries[0].Name)
	}
}

func TestRun_StopsEarlyOnPass(t *testing.T) {
	p, _ := newTestPipeline(t)
	result, err := p.Run(context.Background(), "Add function", Options{
		TargetFile:  "main.go",
		GroundTruth: []string{"util.go"},
		EvalConfig:  evaluator.Config{PrecisionThreshold: 0.01, RecallThreshold: 0.01},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Evaluation.Pass {
		t.Fatalf("expected pass with lenient thresholds, got %+v", result.Evaluation)
	}
	if result.Iterations != 1 {
		t.Fatalf("expected the loop to exit after iteration 1 on pass, got %d", result.Iterations)
	}
}

func TestRun_WidensOnFailureUpToIterationCap(t *testing.T) {
	p, _ := newTestPipeline(t)
	result, err := p.Run(context.Background(), "Add function", Options{
		TargetFile:  "main.go",
		GroundTruth: []string{"nonexistent.go"},
		EvalConfig:  evaluator.Config{PrecisionThreshold: 0.99, RecallThreshold: 0.99},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != defaultMaxIterations {
		t.Fatalf("expected to run the full %d iterations, got %d", defaultMaxIterations, result.Iterations)
	}
	if len(result.ActionHistory) == 0 {
		t.Fatal("expected widening actions to have been recorded")
	}
}

func TestStateApply_IsMonotonicAndCapped(t *testing.T) {
	s := initialState()
	for i := 0; i < 10; i++ {
		s = s.apply([]evaluator.Action{evaluator.ActionIncreaseWalkDepth, evaluator.ActionIncreaseTokenBudget})
	}
	if s.WalkDepth != maxWalkDepth {
		t.Fatalf("expected walk depth capped at %d, got %d", maxWalkDepth, s.WalkDepth)
	}
	if s.TokenBudget != maxTokenBudget {
		t.Fatalf("expected token budget capped at %d, got %d", maxTokenBudget, s.TokenBudget)
	}
}
