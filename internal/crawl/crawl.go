// Package crawl walks a repository root for source files the Graph
// Builder should parse: .gitignore-aware, skipping vendor/build output
// and dot-directories.
package crawl

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

const defaultMaxFileSizeKB = 200

var codeExtensions = map[string]bool{
	".ts": true, ".tsx": true,
	".js": true, ".jsx": true,
	".go": true,
}

var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true,
	".next": true, "__pycache__": true, "vendor": true, "testdata": true,
	"bower_components": true, ".benchmark-artifacts": true,
}

var skipFiles = map[string]bool{
	"package-lock.json": true, "pnpm-lock.yaml": true, "yarn.lock": true,
	"go.sum": true,
}

// File describes one source file found under a crawled root.
type File struct {
	AbsPath   string
	RelPath   string
	Extension string
	SizeBytes int64
}

// Stats summarizes a crawl for telemetry.
type Stats struct {
	Total       int
	Skipped     int
	ByExtension map[string]int
}

// Result is the full output of a Directory crawl.
type Result struct {
	Files []File
	Stats Stats
}

// Directory walks root and returns the source files the Builder should
// parse. maxFileSizeKB overrides the default 200KB cap when positive.
func Directory(root string, maxFileSizeKB ...int) (*Result, error) {
	maxBytes := int64(defaultMaxFileSizeKB) * 1024
	if len(maxFileSizeKB) > 0 && maxFileSizeKB[0] > 0 {
		maxBytes = int64(maxFileSizeKB[0]) * 1024
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("crawl: stat root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("crawl: not a directory: %s", root)
	}

	result := &Result{Stats: Stats{ByExtension: make(map[string]int)}}

	var ignoreStack []ignoreEntry
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		ignoreStack = append(ignoreStack, ignoreEntry{depth: 0, matcher: gi})
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		depth := 0
		if relPath != "." {
			depth = strings.Count(relPath, string(filepath.Separator)) + 1
		}

		for len(ignoreStack) > 0 && ignoreStack[len(ignoreStack)-1].depth >= depth && depth > 0 {
			ignoreStack = ignoreStack[:len(ignoreStack)-1]
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			name := d.Name()
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				result.Stats.Skipped++
				return filepath.SkipDir
			}
			if isGitignored(relPath, ignoreStack) {
				result.Stats.Skipped++
				return filepath.SkipDir
			}
			if gi, loadErr := ignore.CompileIgnoreFile(filepath.Join(path, ".gitignore")); loadErr == nil {
				ignoreStack = append(ignoreStack, ignoreEntry{depth: depth, matcher: gi})
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			result.Stats.Skipped++
			return nil
		}

		name := d.Name()
		ext := filepath.Ext(name)

		if skipFiles[name] || ext == ".lock" || ext == ".log" {
			result.Stats.Skipped++
			return nil
		}
		if isGitignored(relPath, ignoreStack) {
			result.Stats.Skipped++
			return nil
		}
		if !codeExtensions[ext] {
			result.Stats.Skipped++
			return nil
		}

		fileInfo, statErr := d.Info()
		if statErr != nil {
			result.Stats.Skipped++
			return nil
		}
		if fileInfo.Size() > maxBytes {
			result.Stats.Skipped++
			return nil
		}

		result.Files = append(result.Files, File{
			AbsPath:   path,
			RelPath:   relPath,
			Extension: ext,
			SizeBytes: fileInfo.Size(),
		})
		result.Stats.Total++
		result.Stats.ByExtension[ext]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("crawl: walking directory: %w", err)
	}

	return result, nil
}

type ignoreEntry struct {
	depth   int
	matcher *ignore.GitIgnore
}

func isGitignored(relPath string, stack []ignoreEntry) bool {
	for _, entry := range stack {
		if entry.matcher.MatchesPath(relPath) {
			return true
		}
	}
	return false
}
