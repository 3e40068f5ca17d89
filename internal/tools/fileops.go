package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oskhen/revue/internal/engine"
)

// NewReadFileTool reads a workspace file.
func NewReadFileTool(ws *Workspace) engine.Tool {
	return engine.Tool{
		Name:        "read_file",
		Description: "Reads the content of a file. Provide the path relative to the workspace root.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path relative to the workspace root"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			full, err := ws.Resolve(path)
			if err != nil {
				return "", err
			}
			if err := ws.CheckExtension(full); err != nil {
				return "", err
			}

			info, err := os.Stat(full)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: File not found: %s", path), nil
			}
			if err != nil {
				return "", err
			}
			if info.IsDir() {
				return fmt.Sprintf("Error: %s is a directory", path), nil
			}
			if err := ws.CheckSize(info.Size()); err != nil {
				return "", err
			}

			data, err := os.ReadFile(full)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", path, err)
			}
			return string(data), nil
		},
	}
}

// NewWriteFileTool writes full file contents, creating parent
// directories as needed.
func NewWriteFileTool(ws *Workspace) engine.Tool {
	return engine.Tool{
		Name:        "write_file",
		Description: "Writes complete file contents to a workspace path, creating parent directories.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Path relative to the workspace root"},"content":{"type":"string","description":"Full file content"}},"required":["path","content"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)

			full, err := ws.Resolve(path)
			if err != nil {
				return "", err
			}
			if err := ws.CheckExtension(full); err != nil {
				return "", err
			}
			if err := ws.CheckSize(int64(len(content))); err != nil {
				return "", err
			}

			if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
				return "", fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := os.WriteFile(full, []byte(content), 0644); err != nil {
				return "", fmt.Errorf("failed to write %s: %w", path, err)
			}
			return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
		},
	}
}

// NewListDirTool lists a workspace directory, directories first.
func NewListDirTool(ws *Workspace) engine.Tool {
	return engine.Tool{
		Name:        "list_dir",
		Description: "Lists the entries of a workspace directory. Use \".\" for the root.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Directory path relative to the workspace root"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			full, err := ws.Resolve(path)
			if err != nil {
				return "", err
			}

			entries, err := os.ReadDir(full)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: Directory not found: %s", path), nil
			}
			if err != nil {
				return "", fmt.Errorf("failed to list %s: %w", path, err)
			}

			sort.Slice(entries, func(i, j int) bool {
				if entries[i].IsDir() != entries[j].IsDir() {
					return entries[i].IsDir()
				}
				return entries[i].Name() < entries[j].Name()
			})

			var b strings.Builder
			fmt.Fprintf(&b, "Contents of %s:\n", path)
			for _, e := range entries {
				if e.IsDir() {
					fmt.Fprintf(&b, "  %s/\n", e.Name())
				} else {
					fmt.Fprintf(&b, "  %s\n", e.Name())
				}
			}
			if len(entries) == 0 {
				b.WriteString("  (empty)\n")
			}
			return b.String(), nil
		},
	}
}
