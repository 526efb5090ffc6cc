// Package overlay implements the append-only operation log that tracks
// uncommitted edits atop a base Code Graph.
package overlay

import (
	"encoding/json"
	"time"

	"github.com/codectx/codectx/internal/graph"
)

// OpType enumerates the three overlay operation kinds.
type OpType string

const (
	OpAdd    OpType = "add"
	OpRemove OpType = "remove"
	OpModify OpType = "modify"
)

// Operation is one entry in the overlay's append-only log. modify and add
// overlap in practice since both upsert by id; see Apply below.
type Operation struct {
	Type      OpType       `json:"type"`
	NodeID    string       `json:"nodeId,omitempty"`
	EdgeID    string       `json:"edgeId,omitempty"`
	Node      *graph.Node  `json:"node,omitempty"`
	Edge      *graph.Edge  `json:"edge,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Path      string       `json:"-"` // which file this op concerns, for clearPath
}

// Overlay is an ordered, append-only log of operations layered atop a
// base-graph snapshot.
type Overlay struct {
	ID                string      `json:"id"`
	BaseGraphSnapshot string      `json:"baseGraphSnapshot"`
	Operations        []Operation `json:"operations"`
	ModifiedPaths     []string    `json:"modifiedPaths"`
}

// New returns an empty overlay anchored to the given base snapshot id.
func New(id, baseSnapshot string) *Overlay {
	return &Overlay{ID: id, BaseGraphSnapshot: baseSnapshot}
}

// IsEmpty reports whether the overlay has no pending operations.
func (o *Overlay) IsEmpty() bool {
	return o == nil || len(o.Operations) == 0
}

// Append adds an operation to the log and tracks its path.
func (o *Overlay) Append(op Operation) {
	o.Operations = append(o.Operations, op)
	if op.Path == "" {
		return
	}
	for _, p := range o.ModifiedPaths {
		if p == op.Path {
			return
		}
	}
	o.ModifiedPaths = append(o.ModifiedPaths, op.Path)
}

// ClearPath removes any pending operations touching path. Needed when a
// file is re-imported into the overlay and must replace older deltas.
func (o *Overlay) ClearPath(path string) {
	filtered := o.Operations[:0]
	for _, op := range o.Operations {
		if op.Path != path {
			filtered = append(filtered, op)
		}
	}
	o.Operations = filtered

	paths := o.ModifiedPaths[:0]
	for _, p := range o.ModifiedPaths {
		if p != path {
			paths = append(paths, p)
		}
	}
	o.ModifiedPaths = paths
}

// Apply returns a new graph produced by replaying the overlay's
// operations atop base. Apply is a pure function: base is never mutated.
//
//	add    -> upsert the provided node/edge
//	modify -> upsert the provided node (overwriting attributes)
//	remove -> delete by id
func (o *Overlay) Apply(base *graph.Graph) *graph.Graph {
	g := base.Clone()
	if o == nil {
		return g
	}

	for _, op := range o.Operations {
		switch op.Type {
		case OpAdd, OpModify:
			if op.Node != nil {
				g.UpsertNode(op.Node)
			}
			if op.Edge != nil {
				_ = g.AddEdge(op.Edge)
			}
		case OpRemove:
			if op.NodeID != "" {
				g.RemoveNode(op.NodeID)
			}
			// Edge removal by id: graph has no direct edge-by-id
			// removal primitive beyond node removal cascades, so
			// overlay-level edge removal is modeled as removing and
			// re-adding the surviving edge set at the call site
			// (Manager.recordFileModification rebuilds per-file edges
			// wholesale rather than deleting individual edges).
		}
	}
	return g
}

// ToJSON serializes the overlay to its on-disk persistence format.
func (o *Overlay) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}

// FromJSON deserializes an overlay.
func FromJSON(data []byte) (*Overlay, error) {
	var o Overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
