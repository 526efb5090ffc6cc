package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Node and edge ids are deterministic functions of their defining tuple,
// so re-parsing the same content — or rebuilding the same directory
// twice — reproduces identical ids and therefore byte-identical graph
// JSON.

// FileNodeID returns the deterministic id for a file node.
func FileNodeID(path string) string {
	return digest("file", path)
}

// SymbolNodeID returns the deterministic id for a function/class/import
// node, keyed by its defining file, name, line range, and language-level
// kind (e.g. "function", "class", "method", "import").
func SymbolNodeID(path string, nodeType NodeType, name string, startLine, endLine int, kind string) string {
	return digest("symbol", path, string(nodeType), name, kind, fmt.Sprintf("%d-%d", startLine, endLine))
}

// EdgeID returns the deterministic id for an edge between two node ids.
func EdgeID(edgeType EdgeType, fromID, toID string) string {
	return digest("edge", string(edgeType), fromID, toID)
}

// PlaceholderID returns the deterministic, not-yet-resolved id a
// cross-file reference is assigned during single-file snapshotting. The
// Builder's single-file reparse tries the export index first; a reference
// still unresolved is reported with this id and gets no edge.
func PlaceholderID(targetFilePath, symbolName string) string {
	return digest("placeholder", targetFilePath, symbolName)
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
