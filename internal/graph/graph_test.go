package graph

import "testing"

func mkFile(path string) *Node {
	return &Node{ID: FileNodeID(path), Type: NodeFile, Name: path, Path: path}
}

func mkFunc(path, name string, start, end int, exported bool) *Node {
	return &Node{
		ID:         SymbolNodeID(path, NodeFunction, name, start, end, "function"),
		Type:       NodeFunction,
		Name:       name,
		Path:       path,
		StartLine:  start,
		EndLine:    end,
		Attributes: map[string]any{AttrExported: exported, AttrKind: "function"},
	}
}

func TestUpsertNode_ReplacesAndReindexesPath(t *testing.T) {
	g := New()
	n := mkFunc("a.go", "Foo", 1, 5, true)
	g.UpsertNode(n)

	if len(g.GetNodesByPath("a.go")) != 1 {
		t.Fatalf("expected 1 node on path")
	}

	// Replace with a node that now lives on a different path.
	moved := *n
	moved.Path = "b.go"
	g.UpsertNode(&moved)

	if len(g.GetNodesByPath("a.go")) != 0 {
		t.Errorf("expected old path entry removed")
	}
	if len(g.GetNodesByPath("b.go")) != 1 {
		t.Errorf("expected new path entry present")
	}
}

func TestAddEdge_FailsOnMissingEndpoint(t *testing.T) {
	g := New()
	f := mkFile("a.go")
	g.UpsertNode(f)

	err := g.AddEdge(&Edge{ID: "e1", FromID: f.ID, ToID: "does-not-exist", Type: EdgeContains})
	if err == nil {
		t.Fatal("expected error for missing target endpoint")
	}
}

func TestRemoveNode_DropsIncomingAndOutgoingEdges(t *testing.T) {
	g := New()
	f := mkFile("a.go")
	fn := mkFunc("a.go", "Foo", 1, 5, true)
	g.UpsertNode(f)
	g.UpsertNode(fn)

	if err := g.AddEdge(&Edge{ID: EdgeID(EdgeContains, f.ID, fn.ID), FromID: f.ID, ToID: fn.ID, Type: EdgeContains}); err != nil {
		t.Fatal(err)
	}

	g.RemoveNode(fn.ID)

	if len(g.GetAllEdges()) != 0 {
		t.Errorf("expected edge referencing removed node to be dropped, got %d", len(g.GetAllEdges()))
	}
	if g.GetNode(fn.ID) != nil {
		t.Errorf("expected node removed")
	}
}

func TestRemoveNodesByPath_BatchRemoves(t *testing.T) {
	g := New()
	f := mkFile("a.go")
	fn1 := mkFunc("a.go", "Foo", 1, 5, true)
	fn2 := mkFunc("a.go", "Bar", 6, 10, false)
	g.UpsertNode(f)
	g.UpsertNode(fn1)
	g.UpsertNode(fn2)

	g.RemoveNodesByPath("a.go")

	if len(g.GetAllNodes()) != 0 {
		t.Errorf("expected all nodes on path removed")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	g := New()
	g.UpsertNode(mkFile("a.go"))

	clone := g.Clone()
	clone.UpsertNode(mkFile("b.go"))

	if len(g.GetAllNodes()) != 1 {
		t.Errorf("mutating clone should not affect original")
	}
	if len(clone.GetAllNodes()) != 2 {
		t.Errorf("expected clone to have 2 nodes")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := New()
	f := mkFile("a.go")
	fn := mkFunc("a.go", "Foo", 1, 5, true)
	g.UpsertNode(f)
	g.UpsertNode(fn)
	if err := g.AddEdge(&Edge{ID: EdgeID(EdgeContains, f.ID, fn.ID), FromID: f.ID, ToID: fn.ID, Type: EdgeContains}); err != nil {
		t.Fatal(err)
	}

	data, err := g.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	rebuilt, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if rebuilt.NodeCount() != g.NodeCount() || rebuilt.EdgeCount() != g.EdgeCount() {
		t.Fatalf("round-trip counts mismatch: nodes %d/%d edges %d/%d",
			rebuilt.NodeCount(), g.NodeCount(), rebuilt.EdgeCount(), g.EdgeCount())
	}

	data2, err := rebuilt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON(rebuilt): %v", err)
	}
	if string(data) != string(data2) {
		t.Errorf("expected byte-identical round trip JSON")
	}
}

func TestDeterministicIDs(t *testing.T) {
	id1 := SymbolNodeID("a.go", NodeFunction, "Foo", 1, 5, "function")
	id2 := SymbolNodeID("a.go", NodeFunction, "Foo", 1, 5, "function")
	if id1 != id2 {
		t.Errorf("expected deterministic id generation")
	}

	id3 := SymbolNodeID("a.go", NodeFunction, "Foo", 1, 6, "function")
	if id1 == id3 {
		t.Errorf("expected different line ranges to produce different ids")
	}
}

func TestExportIndex(t *testing.T) {
	g := New()
	fn := mkFunc("a.go", "Foo", 1, 5, true)
	unexported := mkFunc("a.go", "bar", 6, 10, false)
	g.UpsertNode(fn)
	g.UpsertNode(unexported)

	idx := g.ExportIndex()
	if idx["a.go#Foo"] != fn.ID {
		t.Errorf("expected exported symbol in export index")
	}
	if _, ok := idx["a.go#bar"]; ok {
		t.Errorf("unexported symbol should not appear in export index")
	}
}
