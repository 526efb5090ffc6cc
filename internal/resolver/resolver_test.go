package resolver

import (
	"context"
	"testing"

	"github.com/codectx/codectx/internal/graph"
)

func buildGraph() *graph.Graph {
	g := graph.New()
	g.UpsertNode(&graph.Node{ID: "file-auth", Type: graph.NodeFile, Name: "login.go", Path: "src/auth/login.go"})
	g.UpsertNode(&graph.Node{
		ID: "sym-login", Type: graph.NodeFunction, Name: "Login", Path: "src/auth/login.go",
		Content: "func Login(token string) error { return validate(token) }",
		StartLine: 1, EndLine: 5,
		Attributes: map[string]any{graph.AttrExported: true, graph.AttrEmbeddingText: "validates an oauth login token"},
	})
	g.UpsertNode(&graph.Node{ID: "file-ui", Type: graph.NodeFile, Name: "button.tsx", Path: "src/ui/button.tsx"})
	g.UpsertNode(&graph.Node{
		ID: "sym-button", Type: graph.NodeFunction, Name: "Button", Path: "src/ui/button.tsx",
		Content: "function Button(props) { return <button>{props.label}</button> }",
		StartLine: 1, EndLine: 3,
		Attributes: map[string]any{graph.AttrExported: true, graph.AttrEmbeddingText: "renders a clickable button component"},
	})
	return g
}

func TestResolve_RanksLexicallyRelevantFileHigher(t *testing.T) {
	r := New(context.Background(), buildGraph(), nil, nil)
	resolution, err := r.Resolve(context.Background(), "oauth login token validation", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolution.Candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if resolution.Candidates[0].Path != "src/auth/login.go" {
		t.Fatalf("expected login.go to rank first, got %s", resolution.Candidates[0].Path)
	}
}

func TestResolve_AppliesAuthIntentBoost(t *testing.T) {
	r := New(context.Background(), buildGraph(), nil, nil)
	resolution, err := r.Resolve(context.Background(), "fix the oauth token bug", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	found := false
	for _, c := range resolution.Candidates {
		if c.Path == "src/auth/login.go" {
			found = true
			hasReason := false
			for _, reason := range c.Reasons {
				if reason == "Intent boost: auth" {
					hasReason = true
				}
			}
			if !hasReason {
				t.Fatalf("expected auth intent boost reason, got %v", c.Reasons)
			}
		}
	}
	if !found {
		t.Fatal("expected auth candidate in results")
	}
}

func TestResolve_InjectsSeedPathFromQueryToken(t *testing.T) {
	r := New(context.Background(), buildGraph(), nil, nil)
	resolution, err := r.Resolve(context.Background(), "what changed in button.tsx", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	found := false
	for _, c := range resolution.Candidates {
		if c.Path == "button.tsx" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected literal file-token seed path to be injected")
	}
}

func TestResolve_RecentPathsGetFocusBonus(t *testing.T) {
	r := New(context.Background(), buildGraph(), nil, nil)
	resolution, err := r.Resolve(context.Background(), "oauth login", Options{
		Limit: 5, RecentPaths: []string{"src/auth/login.go"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolution.Candidates) == 0 || resolution.Candidates[0].Path != "src/auth/login.go" {
		t.Fatalf("expected recent path to be boosted to the top, got %v", resolution.Candidates)
	}
}

func TestResolve_EmptyGraphReturnsEmptyResolution(t *testing.T) {
	r := New(context.Background(), graph.New(), nil, nil)
	resolution, err := r.Resolve(context.Background(), "anything", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolution.Candidates) != 0 {
		t.Fatalf("expected no candidates, got %v", resolution.Candidates)
	}
}
