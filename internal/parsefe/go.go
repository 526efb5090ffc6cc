package parsefe

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

var _ FrontEnd = (*GoFrontEnd)(nil)

// GoFrontEnd parses Go source with tree-sitter, walking the syntax tree
// to extract function, method, struct, interface, and type-alias
// declarations along with their call, type, and import edges.
type GoFrontEnd struct{}

func NewGoFrontEnd() *GoFrontEnd { return &GoFrontEnd{} }

func (f *GoFrontEnd) Parse(path string, source []byte) (*FileResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsefe: go tree-sitter parse: %w", err)
	}
	defer tree.Close()

	result := &FileResult{}
	root := tree.RootNode()
	f.extractSymbols(source, root, result)
	f.extractEdges(source, root, path, result)
	return result, nil
}

func isExportedGoName(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper([]rune(name)[0])
}

func (f *GoFrontEnd) extractSymbols(source []byte, root *sitter.Node, result *FileResult) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "function_declaration":
			f.extractFunction(source, child, result)
		case "method_declaration":
			f.extractMethod(source, child, result)
		case "type_declaration":
			f.extractTypeDecl(source, child, result)
		}
	}
}

func (f *GoFrontEnd) extractFunction(source []byte, node *sitter.Node, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeContent(source, nameNode)
	params, ret := goParamsAndReturn(source, node)

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: name,
		Kind:          "function",
		Exported:      isExportedGoName(name),
		Signature:     extractSignature(source, node),
		Parameters:    params,
		ReturnType:    ret,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Source:        nodeContent(source, node),
		Documentation: goDocstring(source, node),
		BodyHash:      computeBodyHash(source, node),
	})
}

func (f *GoFrontEnd) extractMethod(source []byte, node *sitter.Node, result *FileResult) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeContent(source, nameNode)
	receiver := goReceiverType(source, node)
	qname := name
	if receiver != "" {
		qname = receiver + "." + name
	}
	params, ret := goParamsAndReturn(source, node)

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: qname,
		Kind:          "method",
		Exported:      isExportedGoName(name),
		ParentName:    receiver,
		ParentType:    "struct",
		Signature:     extractSignature(source, node),
		Parameters:    params,
		ReturnType:    ret,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Source:        nodeContent(source, node),
		Documentation: goDocstring(source, node),
		BodyHash:      computeBodyHash(source, node),
	})
}

func (f *GoFrontEnd) extractTypeDecl(source []byte, node *sitter.Node, result *FileResult) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		spec := node.NamedChild(i)
		if spec.Type() != "type_spec" {
			continue
		}
		f.extractTypeSpec(source, spec, node, result)
	}
}

func (f *GoFrontEnd) extractTypeSpec(source []byte, spec, declNode *sitter.Node, result *FileResult) {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeContent(source, nameNode)

	typeNode := spec.ChildByFieldName("type")
	kind := "type_alias"
	if typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			kind = "struct"
		case "interface_type":
			kind = "interface"
		}
	}

	result.Symbols = append(result.Symbols, Symbol{
		Name:          name,
		QualifiedName: name,
		Kind:          kind,
		Exported:      isExportedGoName(name),
		Signature:     goTypeSignature(source, spec, kind, name),
		StartLine:     int(declNode.StartPoint().Row) + 1,
		EndLine:       int(declNode.EndPoint().Row) + 1,
		Source:        nodeContent(source, declNode),
		Documentation: goDocstring(source, declNode),
		BodyHash:      computeBodyHash(source, declNode),
	})
}

// --- Edge extraction ---

func (f *GoFrontEnd) extractEdges(source []byte, root *sitter.Node, filePath string, result *FileResult) {
	f.extractImportEdges(source, root, filePath, result)
	f.extractContainsEdges(filePath, result)
	f.extractHeritageEdges(source, root, result)
	f.extractCallEdges(source, root, result)
	f.extractTypeEdges(source, root, result)
}

func (f *GoFrontEnd) extractImportEdges(source []byte, root *sitter.Node, filePath string, result *FileResult) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_declaration" {
			continue
		}

		if spec := findChildByType(child, "import_spec"); spec != nil {
			f.addImportEdge(source, spec, filePath, result)
			continue
		}

		specList := findChildByType(child, "import_spec_list")
		if specList == nil {
			continue
		}
		for j := 0; j < int(specList.NamedChildCount()); j++ {
			s := specList.NamedChild(j)
			if s.Type() == "import_spec" {
				f.addImportEdge(source, s, filePath, result)
			}
		}
	}
}

func (f *GoFrontEnd) addImportEdge(source []byte, spec *sitter.Node, filePath string, result *FileResult) {
	pathNode := findChildByType(spec, "interpreted_string_literal")
	if pathNode == nil {
		return
	}
	importPath := stripQuotes(nodeContent(source, pathNode))

	var symbols []string
	switch {
	case findChildByType(spec, "dot") != nil:
		symbols = append(symbols, ". (dot import)")
	case findChildByType(spec, "blank_identifier") != nil:
		symbols = append(symbols, "_ (side effect)")
	default:
		if aliasNode := findChildByType(spec, "package_identifier"); aliasNode != nil {
			symbols = append(symbols, nodeContent(source, aliasNode)+" (alias)")
		}
	}

	result.Edges = append(result.Edges, EdgeRef{
		Source:  filePath,
		Target:  importPath,
		Kind:    "imports",
		Line:    int(spec.StartPoint().Row) + 1,
		Symbols: symbols,
	})
}

func (f *GoFrontEnd) extractContainsEdges(filePath string, result *FileResult) {
	for _, sym := range result.Symbols {
		switch sym.Kind {
		case "function", "struct", "interface", "type_alias":
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

func (f *GoFrontEnd) extractHeritageEdges(source []byte, root *sitter.Node, result *FileResult) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "type_declaration" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			spec := child.NamedChild(j)
			if spec.Type() == "type_spec" {
				f.extractEmbedEdges(source, spec, result)
			}
		}
	}
}

func (f *GoFrontEnd) extractEmbedEdges(source []byte, spec *sitter.Node, result *FileResult) {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	structName := nodeContent(source, nameNode)

	typeNode := spec.ChildByFieldName("type")
	if typeNode == nil || typeNode.Type() != "struct_type" {
		return
	}
	fieldList := findChildByType(typeNode, "field_declaration_list")
	if fieldList == nil {
		return
	}

	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		field := fieldList.NamedChild(i)
		if field.Type() != "field_declaration" || !isEmbeddedField(field) {
			continue
		}
		if embeddedType := extractEmbeddedTypeName(source, field); embeddedType != "" {
			result.Edges = append(result.Edges, EdgeRef{
				Source: structName, Target: embeddedType, Kind: "embeds",
				Line: int(field.StartPoint().Row) + 1,
			})
		}
	}
}

func isEmbeddedField(field *sitter.Node) bool {
	for i := 0; i < int(field.NamedChildCount()); i++ {
		if field.NamedChild(i).Type() == "field_identifier" {
			return false
		}
	}
	return true
}

func extractEmbeddedTypeName(source []byte, field *sitter.Node) string {
	for i := 0; i < int(field.NamedChildCount()); i++ {
		child := field.NamedChild(i)
		switch child.Type() {
		case "type_identifier":
			return nodeContent(source, child)
		case "pointer_type":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if inner := child.NamedChild(j); inner.Type() == "type_identifier" {
					return nodeContent(source, inner)
				}
			}
		case "qualified_type":
			return nodeContent(source, child)
		}
	}
	return ""
}

func (f *GoFrontEnd) extractCallEdges(source []byte, root *sitter.Node, result *FileResult) {
	for _, sym := range result.Symbols {
		if sym.Kind != "function" && sym.Kind != "method" {
			continue
		}
		astNode := goFindDeclAtLine(root, sym.StartLine-1)
		if astNode == nil {
			continue
		}
		body := astNode.ChildByFieldName("body")
		if body == nil {
			continue
		}
		f.collectCalls(source, body, sym.QualifiedName, result)
	}
}

func (f *GoFrontEnd) collectCalls(source []byte, node *sitter.Node, caller string, result *FileResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		if child.Type() == "func_literal" {
			if body := child.ChildByFieldName("body"); body != nil {
				f.collectCalls(source, body, caller, result)
			}
			continue
		}

		if child.Type() == "call_expression" {
			if fn := child.ChildByFieldName("function"); fn != nil {
				if callee := goCalleeName(source, fn); callee != "" {
					result.Edges = append(result.Edges, EdgeRef{
						Source: caller, Target: callee, Kind: "calls",
						Line: int(child.StartPoint().Row) + 1,
					})
				}
			}
		}

		f.collectCalls(source, child, caller, result)
	}
}

func goCalleeName(source []byte, node *sitter.Node) string {
	switch node.Type() {
	case "identifier", "selector_expression":
		return nodeContent(source, node)
	default:
		return ""
	}
}

func (f *GoFrontEnd) extractTypeEdges(source []byte, root *sitter.Node, result *FileResult) {
	for _, sym := range result.Symbols {
		if sym.Kind != "function" && sym.Kind != "method" {
			continue
		}
		astNode := goFindDeclAtLine(root, sym.StartLine-1)
		if astNode == nil {
			continue
		}
		seen := make(map[string]bool)
		for _, t := range goCollectParamTypes(source, astNode) {
			if seen[t.name] || isGoBuiltinType(t.name) {
				continue
			}
			seen[t.name] = true
			result.Edges = append(result.Edges, EdgeRef{
				Source: sym.QualifiedName, Target: t.name, Kind: "uses_type", Line: t.line,
			})
		}
	}
}

func goParamsAndReturn(source []byte, node *sitter.Node) (params, ret string) {
	if p := node.ChildByFieldName("parameters"); p != nil {
		params = nodeContent(source, p)
	}
	if r := node.ChildByFieldName("result"); r != nil {
		ret = nodeContent(source, r)
	}
	return params, ret
}

func goCollectParamTypes(source []byte, node *sitter.Node) []typeRef {
	var refs []typeRef
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "parameter_list":
			refs = append(refs, goFindTypeRefs(source, child)...)
		case "type_identifier":
			refs = append(refs, typeRef{name: nodeContent(source, child), line: int(child.StartPoint().Row) + 1})
		case "pointer_type", "slice_type", "array_type", "map_type", "channel_type":
			refs = append(refs, goFindTypeRefs(source, child)...)
		}
	}
	if result := node.ChildByFieldName("result"); result != nil {
		refs = append(refs, goFindTypeRefs(source, result)...)
	}
	return refs
}

func goFindTypeRefs(source []byte, node *sitter.Node) []typeRef {
	var refs []typeRef
	if node.Type() == "type_identifier" {
		refs = append(refs, typeRef{name: nodeContent(source, node), line: int(node.StartPoint().Row) + 1})
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		refs = append(refs, goFindTypeRefs(source, node.Child(i))...)
	}
	return refs
}

func isGoBuiltinType(name string) bool {
	switch name {
	case "string", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "error", "any":
		return true
	}
	return false
}

func goReceiverType(source []byte, method *sitter.Node) string {
	recv := method.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		if typeNode := param.ChildByFieldName("type"); typeNode != nil {
			return goExtractBaseType(source, typeNode)
		}
	}
	return ""
}

func goExtractBaseType(source []byte, node *sitter.Node) string {
	switch node.Type() {
	case "type_identifier":
		return nodeContent(source, node)
	case "pointer_type":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == "type_identifier" {
				return nodeContent(source, child)
			}
		}
	}
	return ""
}

func goTypeSignature(source []byte, spec *sitter.Node, kind, name string) string {
	switch kind {
	case "struct":
		return "type " + name + " struct"
	case "interface":
		return "type " + name + " interface"
	default:
		return "type " + nodeContent(source, spec)
	}
}

func goDocstring(source []byte, node *sitter.Node) string {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}

	lines := []string{nodeContent(source, prev)}
	cur := prev
	for {
		p := cur.PrevNamedSibling()
		if p == nil || p.Type() != "comment" {
			break
		}
		text := nodeContent(source, p)
		if !strings.HasPrefix(text, "//") {
			break
		}
		if cur.StartPoint().Row-p.EndPoint().Row > 1 {
			break
		}
		lines = append([]string{text}, lines...)
		cur = p
	}

	var cleaned []string
	for _, l := range lines {
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, " ")
		cleaned = append(cleaned, l)
	}
	return strings.Join(cleaned, "\n")
}

func goFindDeclAtLine(root *sitter.Node, row int) *sitter.Node {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if child := root.NamedChild(i); int(child.StartPoint().Row) == row {
			return child
		}
	}
	return nil
}
