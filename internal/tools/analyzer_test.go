package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const analyzerSample = `package main

// greet says hello.
func greet(name string) string {
	if name == "" {
		return "hello"
	}
	return "hello " + name
}

type server struct{}
`

func TestAnalyzeFileTool(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws.Root(), "main.go"), []byte(analyzerSample), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	out, err := NewAnalyzeFileTool(ws).Fn(context.Background(), map[string]any{"path": "main.go"})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	for _, want := range []string{
		"Analysis of main.go:",
		"comments: 1",
		"Decision points: 1",
		"func greet(name string) string",
		"type server struct{}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeFileMissing(t *testing.T) {
	ws := newTestWorkspace(t)
	out, err := NewAnalyzeFileTool(ws).Fn(context.Background(), map[string]any{"path": "ghost.go"})
	if err != nil {
		t.Fatalf("missing file should be soft output, got error: %v", err)
	}
	if !strings.HasPrefix(out, "Error: File not found") {
		t.Errorf("got %q", out)
	}
}

func TestAnalyzeCounts(t *testing.T) {
	content := "# comment\n\ndef f():\n    if x and y:\n        pass\n"
	out := analyze("script.py", content)

	for _, want := range []string{
		"code: 3",
		"comments: 1",
		"blank: 2",
		"def f():",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
