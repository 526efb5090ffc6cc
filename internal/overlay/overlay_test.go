package overlay

import (
	"testing"
	"time"

	"github.com/codectx/codectx/internal/graph"
)

func TestApply_AddUpsertsNode(t *testing.T) {
	base := graph.New()
	o := New("ov1", "snap1")

	n := &graph.Node{ID: graph.FileNodeID("a.go"), Type: graph.NodeFile, Path: "a.go"}
	o.Append(Operation{Type: OpAdd, Node: n, Path: "a.go", Timestamp: time.Unix(0, 0)})

	result := o.Apply(base)
	if result.GetNode(n.ID) == nil {
		t.Fatalf("expected node added via overlay apply")
	}
	if base.GetNode(n.ID) != nil {
		t.Fatalf("apply must not mutate the base graph")
	}
}

func TestApply_RemoveDeletesNode(t *testing.T) {
	base := graph.New()
	n := &graph.Node{ID: graph.FileNodeID("a.go"), Type: graph.NodeFile, Path: "a.go"}
	base.UpsertNode(n)

	o := New("ov1", "snap1")
	o.Append(Operation{Type: OpRemove, NodeID: n.ID, Path: "a.go"})

	result := o.Apply(base)
	if result.GetNode(n.ID) != nil {
		t.Fatalf("expected node removed via overlay apply")
	}
}

func TestIsEmpty(t *testing.T) {
	o := New("ov1", "snap1")
	if !o.IsEmpty() {
		t.Errorf("expected new overlay to be empty")
	}
	o.Append(Operation{Type: OpAdd, Node: &graph.Node{ID: "x", Path: "a.go"}, Path: "a.go"})
	if o.IsEmpty() {
		t.Errorf("expected overlay with operations to be non-empty")
	}
}

func TestClearPath_RemovesOnlyThatPathsOps(t *testing.T) {
	o := New("ov1", "snap1")
	o.Append(Operation{Type: OpAdd, Node: &graph.Node{ID: "a", Path: "a.go"}, Path: "a.go"})
	o.Append(Operation{Type: OpAdd, Node: &graph.Node{ID: "b", Path: "b.go"}, Path: "b.go"})

	o.ClearPath("a.go")

	if len(o.Operations) != 1 {
		t.Fatalf("expected 1 remaining op, got %d", len(o.Operations))
	}
	if o.Operations[0].Path != "b.go" {
		t.Errorf("expected b.go op to survive")
	}
	for _, p := range o.ModifiedPaths {
		if p == "a.go" {
			t.Errorf("expected a.go removed from modified paths")
		}
	}
}

func TestApplyInvariant_NodesFromBasePlusOverlayAdds(t *testing.T) {
	base := graph.New()
	keep := &graph.Node{ID: "keep", Type: graph.NodeFile, Path: "keep.go"}
	removed := &graph.Node{ID: "removed", Type: graph.NodeFile, Path: "removed.go"}
	base.UpsertNode(keep)
	base.UpsertNode(removed)

	o := New("ov1", "snap1")
	o.Append(Operation{Type: OpRemove, NodeID: "removed", Path: "removed.go"})
	added := &graph.Node{ID: "added", Type: graph.NodeFile, Path: "added.go"}
	o.Append(Operation{Type: OpAdd, Node: added, Path: "added.go"})

	result := o.Apply(base)

	if result.GetNode("keep") == nil {
		t.Errorf("expected untouched base node to survive")
	}
	if result.GetNode("removed") != nil {
		t.Errorf("expected removed node to be gone")
	}
	if result.GetNode("added") == nil {
		t.Errorf("expected added node to be present")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	o := New("ov1", "snap1")
	o.Append(Operation{Type: OpAdd, Node: &graph.Node{ID: "a", Path: "a.go"}, Path: "a.go", Timestamp: time.Unix(100, 0)})

	data, err := o.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	rebuilt, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if rebuilt.ID != o.ID || len(rebuilt.Operations) != len(o.Operations) {
		t.Errorf("round trip mismatch")
	}
}
