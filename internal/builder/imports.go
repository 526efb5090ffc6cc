package builder

import (
	"path/filepath"
	"strings"
)

// tsExtensions is the probe order for extensionless relative imports.
var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// resolveRelativeImport resolves a "./foo" or "../bar" specifier from
// sourceDir against fileSet (the set of crawled, parsed file paths).
// Non-relative specifiers (package imports, bare module names) are the
// caller's responsibility to skip: import resolution here is
// relative-only, since nothing here models a package registry or
// monorepo layout.
func resolveRelativeImport(specifier, sourceDir string, fileSet map[string]bool) (string, bool) {
	if !strings.HasPrefix(specifier, ".") {
		return "", false
	}
	candidate := filepath.Clean(filepath.Join(sourceDir, specifier))
	return tryExtensions(candidate, fileSet)
}

func tryExtensions(candidate string, fileSet map[string]bool) (string, bool) {
	if fileSet[candidate] {
		return candidate, true
	}
	for _, ext := range tsExtensions {
		if fileSet[candidate+ext] {
			return candidate + ext, true
		}
	}
	for _, ext := range tsExtensions {
		indexPath := filepath.Join(candidate, "index"+ext)
		if fileSet[indexPath] {
			return indexPath, true
		}
	}
	return "", false
}
