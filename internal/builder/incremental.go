package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codectx/codectx/internal/graph"
	"github.com/codectx/codectx/internal/overlay"
	"github.com/codectx/codectx/internal/parsefe"
)

// UnresolvedRef is a call or type reference to a symbol this single-file
// reparse could not place: the target file couldn't be determined, or
// the export index didn't have the symbol yet. PlaceholderID gives it a
// stable identity so a later full rebuild (which sees every file at
// once, per Build above) can recognize the same reference again.
type UnresolvedRef struct {
	FromQualifiedName string
	TargetFile        string
	SymbolName        string
	PlaceholderID     string
}

// ParseFileForOverlay parses a single modified file and returns the
// overlay operations needed to bring base up to date for that file,
// without touching any other file's nodes. Used by the Graph Manager's
// recordFileModification: a single-writer overlay only ever reparses the
// file that changed, so cross-file call/type edges must resolve against
// base's export index rather than a full project-wide symbol table
// (contrast with Build, which has every file in hand and resolves edges
// directly).
func ParseFileForOverlay(rootPath, relPath string, base *graph.Graph) ([]overlay.Operation, []UnresolvedRef, error) {
	absPath := filepath.Join(rootPath, relPath)
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil, fmt.Errorf("builder: reading %s: %w", relPath, err)
	}

	result, err := parsefe.Parse(relPath, source)
	if err != nil {
		return nil, nil, fmt.Errorf("builder: parsing %s: %w", relPath, err)
	}

	var ops []overlay.Operation
	lookup := newSymbolLookup()

	fileID := graph.FileNodeID(relPath)
	fileNode := &graph.Node{ID: fileID, Type: graph.NodeFile, Name: filepath.Base(relPath), Path: relPath}
	ops = append(ops, overlay.Operation{Type: overlay.OpAdd, NodeID: fileID, Node: fileNode, Path: relPath})
	lookup.addFile(relPath, fileID)

	for _, sym := range result.Symbols {
		nodeType := graph.NodeFunction
		if sym.Kind == "struct" || sym.Kind == "class" || sym.Kind == "interface" || sym.Kind == "type_alias" || sym.Kind == "enum" {
			nodeType = graph.NodeClass
		}
		id := graph.SymbolNodeID(relPath, nodeType, sym.QualifiedName, sym.StartLine, sym.EndLine, sym.Kind)
		node := &graph.Node{
			ID: id, Type: nodeType, Name: sym.Name, Path: relPath,
			Content: sym.Source, StartLine: sym.StartLine, EndLine: sym.EndLine,
			Attributes: map[string]any{
				graph.AttrExported:      sym.Exported,
				graph.AttrKind:          sym.Kind,
				graph.AttrParentName:    sym.ParentName,
				graph.AttrParentType:    sym.ParentType,
				graph.AttrSignature:     sym.Signature,
				graph.AttrParameters:    sym.Parameters,
				graph.AttrReturnType:    sym.ReturnType,
				graph.AttrDocumentation: sym.Documentation,
				graph.AttrDigest:        sym.BodyHash,
				graph.AttrEmbeddingText: embeddingText(sym),
			},
		}
		ops = append(ops, overlay.Operation{Type: overlay.OpAdd, NodeID: id, Node: node, Path: relPath})
		lookup.addSymbol(sym.QualifiedName, id)
	}

	importTargets := resolveFileImports(result, filepath.Dir(relPath), rootPath)

	exportIndex := base.ExportIndex()
	var unresolved []UnresolvedRef

	for _, e := range result.Edges {
		switch e.Kind {
		case "imports":
			if target, ok := importTargets[e.Target]; ok {
				targetID := graph.FileNodeID(target)
				if base.GetNode(targetID) != nil {
					ops = append(ops, overlay.Operation{
						Type: overlay.OpAdd, EdgeID: graph.EdgeID(graph.EdgeImports, fileID, targetID),
						Edge: &graph.Edge{ID: graph.EdgeID(graph.EdgeImports, fileID, targetID), FromID: fileID, ToID: targetID, Type: graph.EdgeImports},
						Path: relPath,
					})
				}
			}

		case "contains":
			srcID, srcOK := lookup.resolve(e.Source)
			tgtID, tgtOK := lookup.resolve(e.Target)
			if srcOK && tgtOK {
				ops = append(ops, edgeOp(graph.EdgeContains, srcID, tgtID, relPath))
			}

		case "calls", "uses_type", "extends", "embeds", "implements":
			edgeType := mapEdgeKind(e.Kind)
			srcID, srcOK := lookup.resolve(e.Source)
			if !srcOK {
				continue
			}
			if tgtID, ok := lookup.resolve(e.Target); ok {
				ops = append(ops, edgeOp(edgeType, srcID, tgtID, relPath))
				continue
			}
			// Not defined in this file: look it up across every import target's
			// exported symbols before giving up.
			resolvedAcrossImports := false
			for _, target := range importTargets {
				key := target + "#" + e.Target
				if tgtID, ok := exportIndex[key]; ok {
					ops = append(ops, edgeOp(edgeType, srcID, tgtID, relPath))
					resolvedAcrossImports = true
					break
				}
			}
			if resolvedAcrossImports {
				continue
			}
			targetFile := ""
			for _, target := range importTargets {
				targetFile = target
				break
			}
			unresolved = append(unresolved, UnresolvedRef{
				FromQualifiedName: e.Source,
				TargetFile:        targetFile,
				SymbolName:        e.Target,
				PlaceholderID:     graph.PlaceholderID(targetFile, e.Target),
			})
		}
	}

	return ops, unresolved, nil
}

func edgeOp(edgeType graph.EdgeType, fromID, toID, path string) overlay.Operation {
	id := graph.EdgeID(edgeType, fromID, toID)
	return overlay.Operation{
		Type: overlay.OpAdd, EdgeID: id, Path: path,
		Edge: &graph.Edge{ID: id, FromID: fromID, ToID: toID, Type: edgeType},
	}
}

func mapEdgeKind(kind string) graph.EdgeType {
	switch kind {
	case "calls":
		return graph.EdgeCalls
	case "uses_type":
		return graph.EdgeReferences
	case "extends", "embeds":
		return graph.EdgeExtends
	case "implements":
		return graph.EdgeImplements
	default:
		return graph.EdgeReferences
	}
}

// resolveFileImports maps each raw import specifier in result to a
// resolved relative file path, probing the filesystem directly since an
// incremental reparse has no project-wide crawl result to consult.
func resolveFileImports(result *parsefe.FileResult, sourceDir, rootPath string) map[string]string {
	targets := make(map[string]string)
	for _, e := range result.Edges {
		if e.Kind != "imports" || !strings.HasPrefix(e.Target, ".") {
			continue
		}
		candidate := filepath.Clean(filepath.Join(sourceDir, e.Target))
		if resolved, ok := probeFilesystem(rootPath, candidate); ok {
			targets[e.Target] = resolved
		}
	}
	return targets
}

func probeFilesystem(rootPath, candidate string) (string, bool) {
	if statExists(filepath.Join(rootPath, candidate)) {
		return candidate, true
	}
	for _, ext := range tsExtensions {
		if statExists(filepath.Join(rootPath, candidate+ext)) {
			return candidate + ext, true
		}
	}
	if statExists(filepath.Join(rootPath, candidate+".go")) {
		return candidate + ".go", true
	}
	for _, ext := range tsExtensions {
		indexPath := filepath.Join(candidate, "index"+ext)
		if statExists(filepath.Join(rootPath, indexPath)) {
			return indexPath, true
		}
	}
	return "", false
}

func statExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
