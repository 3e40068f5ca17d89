package index

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
}

func TestDetectLang(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/App.TSX", "ts"},
		{"script.py", "python"},
		{"notes.md", "markdown"},
		{"image.png", ""},
		{"Makefile", ""},
	}
	for _, tt := range tests {
		if got := DetectLang(tt.path); got != tt.want {
			t.Errorf("DetectLang(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWalkHonorsDefaults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":             "package main",
		"node_modules/dep.js": "x",
		".git/config":         "x",
		"vendor/lib.go":       "x",
		"docs/readme.md":      "docs",
		"assets/logo.png":     "binary",
	})

	files, err := NewWalker(root).Walk()
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	got := map[string]bool{}
	for _, f := range files {
		got[f.Path] = true
	}
	for _, want := range []string{"main.go", "docs/readme.md"} {
		if !got[want] {
			t.Errorf("missing %s in walk results %v", want, got)
		}
	}
	for _, skip := range []string{"node_modules/dep.js", ".git/config", "vendor/lib.go", "assets/logo.png"} {
		if got[skip] {
			t.Errorf("%s should be skipped", skip)
		}
	}
}

func TestWalkHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":     "generated/\n*.tmp.go\n# a comment\n",
		"main.go":        "package main",
		"main.tmp.go":    "package main",
		"generated/x.go": "package generated",
	})

	w := NewWalker(root)
	files, err := w.Walk()
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	for _, f := range files {
		if f.Path == "main.tmp.go" || f.Path == "generated/x.go" {
			t.Errorf("gitignored file %s in walk results", f.Path)
		}
	}
	if len(files) != 1 || files[0].Path != "main.go" {
		t.Errorf("walk results %v, want only main.go", files)
	}

	if !w.Ignored("generated/y.go") {
		t.Error("Ignored should match gitignore patterns")
	}
	if w.Ignored("main.go") {
		t.Error("main.go should not be ignored")
	}
}
