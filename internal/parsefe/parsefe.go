// Package parsefe implements the Language Front-End contract: per-file
// AST parsing into symbol and edge lists the Graph Builder turns into
// graph.Node/graph.Edge values. Each result carries the richer attribute
// bag the graph model needs (Exported, ParentName/ParentType, Parameters,
// ReturnType) so the Builder can populate graph.Node.Attributes directly.
package parsefe

import (
	"fmt"
	"path/filepath"
)

// Symbol is a parsed declaration: a function, method, struct, interface,
// type alias, class, or enum. QualifiedName disambiguates methods from
// free functions ("Receiver.Method") and is used to resolve call/type
// edges within the same file before the Builder assigns node IDs.
type Symbol struct {
	Name          string
	QualifiedName string
	Kind          string // function, method, struct, interface, type_alias, class, enum
	Exported      bool
	ParentName    string
	ParentType    string
	Signature     string
	Parameters    string
	ReturnType    string
	Documentation string
	StartLine     int
	EndLine       int
	Source        string
	BodyHash      string
}

// EdgeRef is an unresolved edge between two symbol/file names, resolved
// to node IDs later by the Builder: Build matches qualified names and file
// paths across the project, and single-file overlay reparses also look
// cross-file targets up in the base graph's export index.
type EdgeRef struct {
	Source  string // qualified name or file path
	Target  string // qualified name, symbol name, or import path
	Kind    string // imports, contains, calls, extends, implements, embeds, uses_type
	Line    int
	Symbols []string // imported symbol names, when Kind == imports
}

// FileResult is everything a front-end extracts from a single file.
type FileResult struct {
	Symbols []Symbol
	Edges   []EdgeRef
}

// FrontEnd parses one file's source into symbols and edges.
type FrontEnd interface {
	Parse(path string, source []byte) (*FileResult, error)
}

var registry map[string]FrontEnd

func init() {
	ts := NewTypeScriptFrontEnd()
	gf := NewGoFrontEnd()
	registry = map[string]FrontEnd{
		".ts":  ts,
		".tsx": ts,
		".js":  ts,
		".jsx": ts,
		".go":  gf,
	}
}

// Supports reports whether a front-end is registered for path's extension.
func Supports(path string) bool {
	_, ok := registry[filepath.Ext(path)]
	return ok
}

// Parse dispatches to the front-end registered for path's extension.
func Parse(path string, source []byte) (*FileResult, error) {
	ext := filepath.Ext(path)
	fe, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("parsefe: no front-end registered for extension %q", ext)
	}
	return fe.Parse(path, source)
}
