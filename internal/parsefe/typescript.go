package parsefe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

var _ FrontEnd = (*TypeScriptFrontEnd)(nil)

// TypeScriptFrontEnd parses TS/TSX/JS/JSX source, walking the syntax
// tree to extract function, class, and interface declarations along
// with their call, type, and import edges.
type TypeScriptFrontEnd struct{}

func NewTypeScriptFrontEnd() *TypeScriptFrontEnd { return &TypeScriptFrontEnd{} }

func (f *TypeScriptFrontEnd) Parse(path string, source []byte) (*FileResult, error) {
	lang, err := f.languageForExt(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsefe: typescript tree-sitter parse: %w", err)
	}
	defer tree.Close()

	result := &FileResult{}
	root := tree.RootNode()
	f.walkTopLevel(source, root, "", false, result)
	f.extractEdges(source, root, path, result)
	return result, nil
}

func (f *TypeScriptFrontEnd) languageForExt(ext string) (*sitter.Language, error) {
	switch ext {
	case ".ts":
		return typescript.GetLanguage(), nil
	case ".tsx", ".jsx":
		return tsx.GetLanguage(), nil
	case ".js":
		return javascript.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("parsefe: unsupported extension %q", ext)
	}
}

func (f *TypeScriptFrontEnd) walkTopLevel(source []byte, node *sitter.Node, parentName string, exported bool, result *FileResult) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		f.extractNode(source, node.NamedChild(i), parentName, exported, result)
	}
}

func (f *TypeScriptFrontEnd) extractNode(source []byte, node *sitter.Node, parentName string, exported bool, result *FileResult) {
	switch node.Type() {
	case "function_declaration":
		f.extractFunction(source, node, parentName, exported, result)
	case "class_declaration", "abstract_class_declaration":
		f.extractClass(source, node, exported, result)
	case "interface_declaration":
		f.extractSimpleDecl(source, node, "interface", parentName, exported, result)
	case "type_alias_declaration":
		f.extractSimpleDecl(source, node, "type_alias", parentName, exported, result)
	case "enum_declaration":
		f.extractSimpleDecl(source, node, "enum", parentName, exported, result)
	case "lexical_declaration":
		f.extractLexicalDecl(source, node, parentName, exported, result)
	case "export_statement":
		f.extractExport(source, node, parentName, result)
	}
}

func (f *TypeScriptFrontEnd) extractFunction(source []byte, node *sitter.Node, parentName string, exported bool, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	if node.ChildByFieldName("body") == nil {
		return // overload signature, no body
	}
	name := nodeContent(source, nameNode)

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: qualifiedName(parentName, name),
		Kind:          "function",
		Exported:      exported,
		Signature:     extractSignature(source, node),
		Parameters:    tsParamsText(source, node),
		ReturnType:    tsReturnTypeText(source, node),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Source:        nodeContent(source, node),
		Documentation: extractDocstring(source, node),
		BodyHash:      computeBodyHash(source, node),
	})
}

func (f *TypeScriptFrontEnd) extractClass(source []byte, node *sitter.Node, exported bool, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeContent(source, nameNode)

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: name,
		Kind:          "class",
		Exported:      exported,
		Signature:     extractSignature(source, node),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Source:        nodeContent(source, node),
		Documentation: extractDocstring(source, node),
		BodyHash:      computeBodyHash(source, node),
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if child := body.NamedChild(i); child.Type() == "method_definition" {
			f.extractMethod(source, child, name, result)
		}
	}
}

func (f *TypeScriptFrontEnd) extractMethod(source []byte, node *sitter.Node, className string, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeContent(source, nameNode)
	isPrivate := strings.HasPrefix(name, "#") || strings.HasPrefix(name, "_")

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: className + "." + name,
		Kind:          "method",
		Exported:      !isPrivate,
		ParentName:    className,
		ParentType:    "class",
		Signature:     extractSignature(source, node),
		Parameters:    tsParamsText(source, node),
		ReturnType:    tsReturnTypeText(source, node),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Source:        nodeContent(source, node),
		Documentation: extractDocstring(source, node),
		BodyHash:      computeBodyHash(source, node),
	})
}

func (f *TypeScriptFrontEnd) extractSimpleDecl(source []byte, node *sitter.Node, kind, parentName string, exported bool, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeContent(source, nameNode)

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: qualifiedName(parentName, name),
		Kind:          kind,
		Exported:      exported,
		Signature:     extractSignature(source, node),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Source:        nodeContent(source, node),
		Documentation: extractDocstring(source, node),
		BodyHash:      computeBodyHash(source, node),
	})
}

func (f *TypeScriptFrontEnd) extractLexicalDecl(source []byte, node *sitter.Node, parentName string, exported bool, result *FileResult) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value == nil {
			continue
		}
		if value.Type() != "arrow_function" && value.Type() != "function_expression" && value.Type() != "function" {
			continue
		}

		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeContent(source, nameNode)

		result.Symbols = append(result.Symbols, Symbol{
			Name:          name,
			QualifiedName: qualifiedName(parentName, name),
			Kind:          "function",
			Exported:      exported,
			Signature:     extractArrowSignature(source, decl),
			Parameters:    tsParamsText(source, value),
			ReturnType:    tsReturnTypeText(source, value),
			StartLine:     int(node.StartPoint().Row) + 1,
			EndLine:       int(node.EndPoint().Row) + 1,
			Source:        nodeContent(source, node),
			Documentation: extractDocstring(source, node),
			BodyHash:      computeBodyHash(source, node),
		})
	}
}

func (f *TypeScriptFrontEnd) extractExport(source []byte, node *sitter.Node, parentName string, result *FileResult) {
	exportDocstring := extractDocstring(source, node)
	before := len(result.Symbols)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		f.extractNode(source, node.NamedChild(i), parentName, true, result)
	}

	if exportDocstring == "" {
		return
	}
	for j := before; j < len(result.Symbols); j++ {
		if result.Symbols[j].Documentation == "" {
			result.Symbols[j].Documentation = exportDocstring
		}
	}
}

func extractArrowSignature(source []byte, declarator *sitter.Node) string {
	text := nodeContent(source, declarator)
	if idx := strings.Index(text, "=>"); idx != -1 {
		return strings.TrimSpace(text[:idx+2])
	}
	return strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
}

func tsParamsText(source []byte, fn *sitter.Node) string {
	if fn == nil {
		return ""
	}
	if p := fn.ChildByFieldName("parameters"); p != nil {
		return nodeContent(source, p)
	}
	return ""
}

func tsReturnTypeText(source []byte, fn *sitter.Node) string {
	if fn == nil {
		return ""
	}
	for i := 0; i < int(fn.ChildCount()); i++ {
		if child := fn.Child(i); child.Type() == "type_annotation" {
			return strings.TrimPrefix(nodeContent(source, child), ":")
		}
	}
	return ""
}

// --- Edge extraction ---

func (f *TypeScriptFrontEnd) extractEdges(source []byte, root *sitter.Node, filePath string, result *FileResult) {
	f.extractImportEdges(source, root, filePath, result)
	f.extractContainsEdges(filePath, result)
	f.extractClassEdges(source, root, result)
	f.extractCallEdges(source, root, result)
	f.extractTypeEdges(source, root, result)
}

func (f *TypeScriptFrontEnd) extractImportEdges(source []byte, root *sitter.Node, filePath string, result *FileResult) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_statement" {
			continue
		}
		moduleNode := findChildByType(child, "string")
		if moduleNode == nil {
			continue
		}
		module := stripQuotes(nodeContent(source, moduleNode))

		var symbols []string
		if clause := findChildByType(child, "import_clause"); clause != nil {
			symbols = extractImportSymbols(source, clause)
		}

		result.Edges = append(result.Edges, EdgeRef{
			Source: filePath, Target: module, Kind: "imports",
			Line: int(child.StartPoint().Row) + 1, Symbols: symbols,
		})
	}
}

func extractImportSymbols(source []byte, clause *sitter.Node) []string {
	var symbols []string
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "identifier":
			symbols = append(symbols, nodeContent(source, child))
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() == "import_specifier" {
					if name := spec.ChildByFieldName("name"); name != nil {
						symbols = append(symbols, nodeContent(source, name))
					}
				}
			}
		case "namespace_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				if c := child.Child(j); c.Type() == "identifier" {
					symbols = append(symbols, "* as "+nodeContent(source, c))
					break
				}
			}
		}
	}
	return symbols
}

func (f *TypeScriptFrontEnd) extractContainsEdges(filePath string, result *FileResult) {
	for _, sym := range result.Symbols {
		switch sym.Kind {
		case "class", "function", "interface", "type_alias", "enum":
			result.Edges = append(result.Edges, EdgeRef{
				Source: filePath, Target: sym.QualifiedName, Kind: "contains", Line: sym.StartLine,
			})
		case "method":
			if sym.ParentName != "" {
				result.Edges = append(result.Edges, EdgeRef{
					Source: sym.ParentName, Target: sym.QualifiedName, Kind: "contains", Line: sym.StartLine,
				})
			}
		}
	}
}

func (f *TypeScriptFrontEnd) extractClassEdges(source []byte, root *sitter.Node, result *FileResult) {
	f.walkForClassEdges(source, root, result)
}

func (f *TypeScriptFrontEnd) walkForClassEdges(source []byte, node *sitter.Node, result *FileResult) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_declaration", "abstract_class_declaration":
			f.extractHeritageEdges(source, child, result)
		case "export_statement":
			f.walkForClassEdges(source, child, result)
		}
	}
}

func (f *TypeScriptFrontEnd) extractHeritageEdges(source []byte, classNode *sitter.Node, result *FileResult) {
	nameNode := classNode.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := nodeContent(source, nameNode)

	heritage := findChildByType(classNode, "class_heritage")
	if heritage == nil {
		return
	}

	for i := 0; i < int(heritage.ChildCount()); i++ {
		child := heritage.Child(i)
		switch child.Type() {
		case "extends_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				target := child.NamedChild(j)
				result.Edges = append(result.Edges, EdgeRef{
					Source: className, Target: nodeContent(source, target), Kind: "extends",
					Line: int(child.StartPoint().Row) + 1,
				})
			}
		case "implements_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				target := child.NamedChild(j)
				if target.Type() == "type_identifier" {
					result.Edges = append(result.Edges, EdgeRef{
						Source: className, Target: nodeContent(source, target), Kind: "implements",
						Line: int(child.StartPoint().Row) + 1,
					})
				}
			}
		}
	}
}

func (f *TypeScriptFrontEnd) extractCallEdges(source []byte, root *sitter.Node, result *FileResult) {
	for _, sym := range result.Symbols {
		if sym.Kind != "function" && sym.Kind != "method" {
			continue
		}
		astNode := findDeclAtLine(root, sym.StartLine-1)
		if astNode == nil {
			continue
		}
		body := findBody(astNode)
		if body == nil {
			continue
		}
		f.collectCalls(source, body, sym.QualifiedName, result)
	}
}

func (f *TypeScriptFrontEnd) collectCalls(source []byte, node *sitter.Node, caller string, result *FileResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		if child.Type() == "arrow_function" || child.Type() == "function_expression" || child.Type() == "function_declaration" {
			continue
		}

		if child.Type() == "call_expression" {
			if callee := child.ChildByFieldName("function"); callee != nil {
				if name := extractCalleeName(source, callee); name != "" {
					result.Edges = append(result.Edges, EdgeRef{
						Source: caller, Target: name, Kind: "calls",
						Line: int(child.StartPoint().Row) + 1,
					})
				}
			}
		}

		f.collectCalls(source, child, caller, result)
	}
}

func extractCalleeName(source []byte, node *sitter.Node) string {
	switch node.Type() {
	case "identifier", "member_expression":
		return nodeContent(source, node)
	case "super":
		return "super"
	default:
		return ""
	}
}

func (f *TypeScriptFrontEnd) extractTypeEdges(source []byte, root *sitter.Node, result *FileResult) {
	for _, sym := range result.Symbols {
		if sym.Kind != "function" && sym.Kind != "method" {
			continue
		}
		astNode := findDeclAtLine(root, sym.StartLine-1)
		if astNode == nil {
			continue
		}
		seen := make(map[string]bool)
		for _, t := range collectTypeAnnotations(source, astNode) {
			if seen[t.name] {
				continue
			}
			seen[t.name] = true
			result.Edges = append(result.Edges, EdgeRef{
				Source: sym.QualifiedName, Target: t.name, Kind: "uses_type", Line: t.line,
			})
		}
	}
}

func collectTypeAnnotations(source []byte, node *sitter.Node) []typeRef {
	var refs []typeRef

	if params := node.ChildByFieldName("parameters"); params != nil {
		refs = append(refs, findTypeIdentifiers(source, params)...)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "type_annotation" {
			refs = append(refs, findTypeIdentifiers(source, child)...)
		}
	}

	if node.Type() == "variable_declarator" {
		if value := node.ChildByFieldName("value"); value != nil {
			if params := value.ChildByFieldName("parameters"); params != nil {
				refs = append(refs, findTypeIdentifiers(source, params)...)
			}
			for i := 0; i < int(value.ChildCount()); i++ {
				if child := value.Child(i); child.Type() == "type_annotation" {
					refs = append(refs, findTypeIdentifiers(source, child)...)
				}
			}
		}
	}

	return refs
}

func findTypeIdentifiers(source []byte, node *sitter.Node) []typeRef {
	var refs []typeRef
	if node.Type() == "type_identifier" {
		name := nodeContent(source, node)
		if !isBuiltinType(name) {
			refs = append(refs, typeRef{name: name, line: int(node.StartPoint().Row) + 1})
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		refs = append(refs, findTypeIdentifiers(source, node.Child(i))...)
	}
	return refs
}

func isBuiltinType(name string) bool {
	switch name {
	case "string", "number", "boolean", "void", "null", "undefined",
		"any", "never", "unknown", "object", "symbol", "bigint":
		return true
	}
	return false
}

func findDeclAtLine(root *sitter.Node, row int) *sitter.Node {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "export_statement" {
			if result := findDeclAtLine(child, row); result != nil {
				return result
			}
		}
		if int(child.StartPoint().Row) == row {
			if child.Type() == "lexical_declaration" {
				for j := 0; j < int(child.NamedChildCount()); j++ {
					if decl := child.NamedChild(j); decl.Type() == "variable_declarator" {
						return decl
					}
				}
			}
			return child
		}
		if child.Type() == "class_declaration" || child.Type() == "abstract_class_declaration" {
			body := child.ChildByFieldName("body")
			if body == nil {
				continue
			}
			for j := 0; j < int(body.NamedChildCount()); j++ {
				if method := body.NamedChild(j); method.Type() == "method_definition" && int(method.StartPoint().Row) == row {
					return method
				}
			}
		}
	}
	return nil
}

func findBody(node *sitter.Node) *sitter.Node {
	if node.Type() == "variable_declarator" {
		value := node.ChildByFieldName("value")
		if value == nil {
			return nil
		}
		if body := value.ChildByFieldName("body"); body != nil {
			return body
		}
		return value
	}
	return node.ChildByFieldName("body")
}
