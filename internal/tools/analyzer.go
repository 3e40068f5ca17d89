package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oskhen/revue/internal/engine"
)

// languageMarkers maps extensions to the prefixes that open a function
// or type definition, for the structural summary.
var languageMarkers = map[string][]string{
	".go":   {"func ", "type ", "const ", "var "},
	".py":   {"def ", "class ", "async def "},
	".js":   {"function ", "class ", "const ", "export "},
	".ts":   {"function ", "class ", "const ", "export ", "interface ", "type "},
	".java": {"public ", "private ", "protected ", "class ", "interface "},
}

var commentPrefixes = map[string][]string{
	".go":   {"//"},
	".py":   {"#"},
	".js":   {"//"},
	".ts":   {"//"},
	".java": {"//"},
	".sh":   {"#"},
	".yaml": {"#"},
	".yml":  {"#"},
	".toml": {"#"},
}

// branchKeywords approximate cyclomatic complexity: each occurrence
// adds one decision point.
var branchKeywords = []string{"if ", "for ", "while ", "case ", "switch ", "&&", "||", "elif ", "except", "catch"}

// NewAnalyzeFileTool computes size, comment and complexity metrics plus
// a definition outline for one file.
func NewAnalyzeFileTool(ws *Workspace) engine.Tool {
	return engine.Tool{
		Name:        "analyze_file",
		Description: "Analyzes a file: line counts, comment ratio, rough complexity and top-level definitions.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path relative to the workspace root"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			full, err := ws.Resolve(path)
			if err != nil {
				return "", err
			}

			data, err := os.ReadFile(full)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: File not found: %s", path), nil
			}
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", path, err)
			}

			return analyze(path, string(data)), nil
		},
	}
}

func analyze(path, content string) string {
	ext := strings.ToLower(filepath.Ext(path))
	lines := strings.Split(content, "\n")

	var code, comments, blanks, branches int
	var defs []string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			blanks++
		case isComment(trimmed, ext):
			comments++
		default:
			code++
			for _, kw := range branchKeywords {
				branches += strings.Count(trimmed, kw)
			}
			for _, marker := range languageMarkers[ext] {
				if strings.HasPrefix(trimmed, marker) {
					defs = append(defs, fmt.Sprintf("  line %d: %s", i+1, clipLine(trimmed, 80)))
					break
				}
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of %s:\n", path)
	fmt.Fprintf(&b, "  Total lines: %d (code: %d, comments: %d, blank: %d)\n", len(lines), code, comments, blanks)
	if code > 0 {
		fmt.Fprintf(&b, "  Comment ratio: %.1f%%\n", 100*float64(comments)/float64(code+comments))
	}
	fmt.Fprintf(&b, "  Decision points: %d\n", branches)
	if len(defs) > 0 {
		fmt.Fprintf(&b, "Definitions (%d):\n%s\n", len(defs), strings.Join(defs, "\n"))
	}
	return b.String()
}

func isComment(trimmed, ext string) bool {
	for _, prefix := range commentPrefixes[ext] {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func clipLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
