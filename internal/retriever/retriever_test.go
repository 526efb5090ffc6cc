package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/resolver"
)

func buildGraph() *graph.Graph {
	g := graph.New()
	g.UpsertNode(&graph.Node{ID: "file-util", Type: graph.NodeFile, Name: "util.go", Path: "util.go"})
	g.UpsertNode(&graph.Node{
		ID: "sym-add", Type: graph.NodeFunction, Name: "Add", Path: "util.go",
		Content: "func Add(a, b int) int { return a + b }", StartLine: 3, EndLine: 5,
		Attributes: map[string]any{graph.AttrExported: true},
	})
	g.UpsertNode(&graph.Node{ID: "file-main", Type: graph.NodeFile, Name: "main.go", Path: "main.go"})
	g.UpsertNode(&graph.Node{
		ID: "sym-run", Type: graph.NodeFunction, Name: "Run", Path: "main.go",
		Content: "func Run() int { return Add(1, 2) }", StartLine: 3, EndLine: 5,
		Attributes: map[string]any{graph.AttrExported: true},
	})
	_ = g.AddEdge(&graph.Edge{ID: "e1", FromID: "sym-run", ToID: "sym-add", Type: graph.EdgeCalls})
	return g
}

func TestBuild_ForwardAndBackwardCategorization(t *testing.T) {
	g := buildGraph()
	r := New(g, resolver.New(context.Background(), g, nil, nil), nil)

	ctxResult, err := r.Build(context.Background(), "how does Run work", "main.go", 8000, Options{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var sawTarget, sawForward bool
	for _, e := range ctxResult.Entries {
		if e.Category == CategoryTarget && e.Node.ID == "sym-run" {
			sawTarget = true
		}
		if e.Category == CategoryForward && e.Node.ID == "sym-add" {
			sawForward = true
		}
	}
	if !sawTarget {
		t.Fatal("expected Run to be categorised as target")
	}
	if !sawForward {
		t.Fatal("expected Add to be categorised as a forward dependency of Run")
	}
}

func TestBuild_BackwardDependentsOfAdd(t *testing.T) {
	g := buildGraph()
	r := New(g, resolver.New(context.Background(), g, nil, nil), nil)

	ctxResult, err := r.Build(context.Background(), "changing Add signature", "util.go", 8000, Options{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var sawBackward bool
	for _, e := range ctxResult.Entries {
		if e.Category == CategoryBackward && e.Node.ID == "sym-run" {
			sawBackward = true
		}
	}
	if !sawBackward {
		t.Fatal("expected Run to be categorised as a backward dependent of Add")
	}
}

func TestBuild_ClampsTokenBudget(t *testing.T) {
	g := buildGraph()
	r := New(g, resolver.New(context.Background(), g, nil, nil), nil)

	ctxResult, err := r.Build(context.Background(), "query", "util.go", 100, Options{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ctxResult.Telemetry.TokenBudget != minTokenBudget {
		t.Fatalf("expected budget clamped to %d, got %d", minTokenBudget, ctxResult.Telemetry.TokenBudget)
	}
}

func TestBuild_FormattedOutputHasSectionHeadings(t *testing.T) {
	g := buildGraph()
	r := New(g, resolver.New(context.Background(), g, nil, nil), nil)

	ctxResult, err := r.Build(context.Background(), "how does Run work", "main.go", 8000, Options{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(ctxResult.Formatted, "TARGET CODE") {
		t.Fatal("expected formatted output to contain the target section heading")
	}
}

func TestBuild_NoTargetFileErrors(t *testing.T) {
	g := graph.New()
	r := New(g, resolver.New(context.Background(), g, nil, nil), nil)

	_, err := r.Build(context.Background(), "query", "", 8000, Options{}, nil)
	if err == nil {
		t.Fatal("expected error when no target file can be resolved")
	}
}
