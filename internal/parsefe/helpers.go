package parsefe

import (
	"crypto/sha256"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func nodeContent(source []byte, node *sitter.Node) string {
	return string(source[node.StartByte():node.EndByte()])
}

func computeBodyHash(source []byte, node *sitter.Node) string {
	h := sha256.Sum256(source[node.StartByte():node.EndByte()])
	return fmt.Sprintf("%x", h)
}

func qualifiedName(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, "\"")
	s = strings.TrimSuffix(s, "\"")
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	return s
}

// extractDocstring looks for JSDoc (/** ... */) or consecutive // comments
// immediately preceding the given node.
func extractDocstring(source []byte, node *sitter.Node) string {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}

	text := nodeContent(source, prev)
	if strings.HasPrefix(text, "/**") {
		return cleanDocstring(text)
	}

	lines := []string{text}
	cur := prev
	for {
		p := cur.PrevNamedSibling()
		if p == nil || p.Type() != "comment" {
			break
		}
		t := nodeContent(source, p)
		if !strings.HasPrefix(t, "//") {
			break
		}
		if cur.StartPoint().Row-p.EndPoint().Row > 1 {
			break
		}
		lines = append([]string{t}, lines...)
		cur = p
	}
	if !strings.HasPrefix(lines[0], "//") {
		return ""
	}
	var cleaned []string
	for _, l := range lines {
		cleaned = append(cleaned, strings.TrimPrefix(strings.TrimPrefix(l, "//"), " "))
	}
	return strings.Join(cleaned, "\n")
}

func cleanDocstring(s string) string {
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimSuffix(s, "*/")
	lines := strings.Split(s, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimPrefix(line, "*")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// extractSignature returns everything up to the opening brace, or the
// first line when there is none (interfaces, type aliases).
func extractSignature(source []byte, node *sitter.Node) string {
	text := nodeContent(source, node)
	if idx := strings.Index(text, "{"); idx != -1 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
}

type typeRef struct {
	name string
	line int
}
