package index

import (
	"strings"
	"testing"
)

func TestBuildRepoMap(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":        "package main\n\nfunc main() {}\n",
		"pkg/store.go":   "package pkg\n\ntype Store struct{}\n\nfunc Open(path string) (*Store, error) {\n\treturn nil, nil\n}\n",
		"pkg/helper.py":  "def helper():\n    pass\n",
		"node_modules/x": "ignored",
	})

	m, err := BuildRepoMap(root)
	if err != nil {
		t.Fatalf("BuildRepoMap failed: %v", err)
	}

	for _, want := range []string{
		"Repository layout:",
		"./",
		"main.go",
		"func main()",
		"pkg/",
		"store.go",
		"type Store struct{}",
		"func Open(path string) (*Store, error)",
		"def helper()",
	} {
		if !strings.Contains(m, want) {
			t.Errorf("repo map missing %q:\n%s", want, m)
		}
	}
	if strings.Contains(m, "node_modules") {
		t.Error("repo map should skip ignored directories")
	}
}

func TestBuildRepoMapEmpty(t *testing.T) {
	m, err := BuildRepoMap(t.TempDir())
	if err != nil {
		t.Fatalf("BuildRepoMap failed: %v", err)
	}
	if m != "(empty workspace)" {
		t.Errorf("got %q", m)
	}
}
