// Package index maintains a keyword search index over the workspace
// and derives the repository map injected into research context. It
// respects .gitignore and keeps itself fresh via filesystem events.
package index

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileInfo describes one indexable source file.
type FileInfo struct {
	Path string // relative to the workspace root
	Lang string
}

// defaultIgnorePatterns are skipped regardless of .gitignore.
var defaultIgnorePatterns = []string{
	".git",
	".revue",
	"node_modules",
	"dist",
	"build",
	"vendor",
	"__pycache__",
	"coverage",
	".next",
	".cache",
	"target",
	".idea",
	".vscode",
	".DS_Store",
}

var extLangs = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "js",
	".jsx":  "js",
	".ts":   "ts",
	".tsx":  "ts",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".sh":   "shell",
	".html": "html",
	".css":  "css",
}

// DetectLang maps a file path to its language, or "" for files the
// index skips.
func DetectLang(path string) string {
	return extLangs[strings.ToLower(filepath.Ext(path))]
}

// Walker discovers indexable files under a root, honoring .gitignore.
type Walker struct {
	root    string
	matcher gitignore.IgnoreParser
}

// NewWalker creates a walker for the given root.
func NewWalker(root string) *Walker {
	patterns := append([]string{}, defaultIgnorePatterns...)
	patterns = append(patterns, readGitignore(filepath.Join(root, ".gitignore"))...)

	return &Walker{
		root:    root,
		matcher: gitignore.CompileIgnoreLines(patterns...),
	}
}

// Ignored reports whether the relative path is excluded from indexing.
func (w *Walker) Ignored(relPath string) bool {
	return w.matcher.MatchesPath(relPath)
}

// Walk returns every indexable file under the root.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil || rel == "." {
			return nil
		}
		if w.matcher.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		lang := DetectLang(path)
		if lang == "" {
			return nil
		}
		files = append(files, FileInfo{Path: rel, Lang: lang})
		return nil
	})
	return files, err
}

// readGitignore loads non-comment pattern lines, tolerating a missing
// file.
func readGitignore(path string) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
