package crawl

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirectory_FindsCodeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main")
	writeFile(t, filepath.Join(dir, "app.ts"), "export {}")
	writeFile(t, filepath.Join(dir, "README.md"), "docs")

	result, err := Directory(dir)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if result.Stats.Total != 2 {
		t.Fatalf("expected 2 code files, got %d (%v)", result.Stats.Total, result.Files)
	}
}

func TestDirectory_SkipsVendorAndDotDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vendor", "lib.go"), "package lib")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(dir, "main.go"), "package main")

	result, err := Directory(dir)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if result.Stats.Total != 1 {
		t.Fatalf("expected only main.go, got %v", result.Files)
	}
}

func TestDirectory_RespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.go\n")
	writeFile(t, filepath.Join(dir, "ignored.go"), "package main")
	writeFile(t, filepath.Join(dir, "kept.go"), "package main")

	result, err := Directory(dir)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if result.Stats.Total != 1 || result.Files[0].RelPath != "kept.go" {
		t.Fatalf("expected only kept.go, got %v", result.Files)
	}
}

func TestDirectory_SkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, 3*1024)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, filepath.Join(dir, "big.go"), string(big))

	result, err := Directory(dir, 1)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if result.Stats.Total != 0 || result.Stats.Skipped == 0 {
		t.Fatalf("expected big.go to be skipped, got %v", result)
	}
}

func TestDirectory_RejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.go")
	writeFile(t, file, "package main")

	if _, err := Directory(file); err == nil {
		t.Fatal("expected error when root is a file")
	}
}
