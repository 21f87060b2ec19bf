package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/pkg/treesitter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestScanSkipsExcludedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "node_modules", "dep", "index.js"), "module.exports = {}\n")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main\n")

	s := NewFileScanner()
	result, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.TotalFiles != 1 {
		t.Fatalf("TotalFiles = %d, want 1 (node_modules and .git excluded), files: %+v", result.TotalFiles, result.Files)
	}
	if result.Files[0].RelPath != "main.go" {
		t.Errorf("found file = %q, want main.go", result.Files[0].RelPath)
	}
}

func TestScanSkipsUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.xyz"), "not code\n")

	s := NewFileScanner()
	result, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0", result.TotalFiles)
	}
	if result.SkippedReason["unsupported_extension"] != 1 {
		t.Errorf("SkippedReason[unsupported_extension] = %d, want 1", result.SkippedReason["unsupported_extension"])
	}
}

func TestScanSkipsFilesOverMaxSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.go"), "package main\n// padding\n")

	s := NewFileScanner()
	s.MaxFileSize = 5
	result, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.TotalFiles != 0 {
		t.Errorf("TotalFiles = %d, want 0 (file exceeds MaxFileSize)", result.TotalFiles)
	}
	if result.SkippedReason["too_large"] != 1 {
		t.Errorf("SkippedReason[too_large] = %d, want 1", result.SkippedReason["too_large"])
	}
}

func TestScanRespectsIncludeLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "b.ts"), "export const x = 1\n")

	s := NewFileScanner()
	s.IncludeLanguages = []treesitter.Language{treesitter.LanguageGo}
	result, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.TotalFiles != 1 || result.Files[0].RelPath != "a.go" {
		t.Fatalf("expected only a.go, got %+v", result.Files)
	}
	if result.SkippedReason["language_filtered"] != 1 {
		t.Errorf("SkippedReason[language_filtered] = %d, want 1", result.SkippedReason["language_filtered"])
	}
}

func TestScanComputesContentHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package main\n")

	s := NewFileScanner()
	result, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Hash == "" {
		t.Fatalf("expected a non-empty content hash, got %+v", result.Files)
	}
	if len(result.Files[0].Hash) != 64 {
		t.Errorf("hash length = %d, want 64 (hex sha256)", len(result.Files[0].Hash))
	}
}

func TestMergeExcludePatternsAvoidsDuplicates(t *testing.T) {
	s := NewFileScanner()
	before := len(s.ExcludePatterns)
	s.MergeExcludePatterns([]string{"node_modules", "my_custom_dir"})
	if len(s.ExcludePatterns) != before+1 {
		t.Errorf("len(ExcludePatterns) = %d, want %d (only my_custom_dir is new)", len(s.ExcludePatterns), before+1)
	}
}

func TestShouldExcludeWildcardSuffix(t *testing.T) {
	s := &FileScanner{ExcludePatterns: []string{"*.min.js"}}
	if !s.ShouldExclude("/p/app.min.js", "app.min.js", false) {
		t.Error("expected app.min.js to be excluded by *.min.js pattern")
	}
	if s.ShouldExclude("/p/app.js", "app.js", false) {
		t.Error("app.js should not be excluded by *.min.js pattern")
	}
}

func TestShouldExcludeHiddenDirectoryAllowsGithub(t *testing.T) {
	s := &FileScanner{}
	if s.ShouldExclude("/p/.github", ".github", true) {
		t.Error(".github should be allowed despite leading dot")
	}
	if !s.ShouldExclude("/p/.secret", ".secret", true) {
		t.Error("other hidden directories should be excluded by default")
	}
}

func TestFilterByLanguageNoArgsReturnsAll(t *testing.T) {
	r := &ScanResult{Files: []ScannedFile{{RelPath: "a.go", Language: treesitter.LanguageGo}}}
	got := r.FilterByLanguage()
	if len(got) != 1 {
		t.Errorf("FilterByLanguage() = %+v, want all files when no languages given", got)
	}
}

func TestFilterByLanguageFiltersToRequested(t *testing.T) {
	r := &ScanResult{Files: []ScannedFile{
		{RelPath: "a.go", Language: treesitter.LanguageGo},
		{RelPath: "b.ts", Language: treesitter.LanguageTypeScript},
	}}
	got := r.FilterByLanguage(treesitter.LanguageGo)
	if len(got) != 1 || got[0].RelPath != "a.go" {
		t.Errorf("FilterByLanguage(go) = %+v, want only a.go", got)
	}
}

func TestGetLanguageStats(t *testing.T) {
	r := &ScanResult{ByLanguage: map[treesitter.Language][]ScannedFile{
		treesitter.LanguageGo: {{RelPath: "a.go"}, {RelPath: "b.go"}},
	}}
	stats := r.GetLanguageStats()
	if stats[treesitter.LanguageGo] != 2 {
		t.Errorf("stats[go] = %d, want 2", stats[treesitter.LanguageGo])
	}
}
