// Package tools implements the collaborators behind the engine's tool
// gateway: file operations, command execution, git inspection, static
// analysis and code search, all scoped to a single workspace root.
package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Workspace confines tool access to one directory tree and enforces
// the file policy (extension allowlist, size cap).
type Workspace struct {
	root        string
	allowedExts map[string]bool
	maxFileSize int64
}

// NewWorkspace creates a workspace rooted at root. An empty extension
// list allows every extension; maxFileSizeMB <= 0 disables the cap.
func NewWorkspace(root string, allowedExts []string, maxFileSizeMB int) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	var exts map[string]bool
	if len(allowedExts) > 0 {
		exts = make(map[string]bool, len(allowedExts))
		for _, e := range allowedExts {
			exts[strings.ToLower(e)] = true
		}
	}

	return &Workspace{
		root:        abs,
		allowedExts: exts,
		maxFileSize: int64(maxFileSizeMB) * 1024 * 1024,
	}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a tool-supplied relative path to an absolute path,
// rejecting traversal outside the root.
func (w *Workspace) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path %s contains a parent reference", path)
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path %s must be relative to the workspace", path)
	}

	full := filepath.Clean(filepath.Join(w.root, path))
	if full != w.root && !strings.HasPrefix(full, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the workspace", path)
	}
	return full, nil
}

// CheckExtension enforces the extension allowlist. Extensionless paths
// are rejected when an allowlist is configured.
func (w *Workspace) CheckExtension(path string) error {
	if w.allowedExts == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !w.allowedExts[ext] {
		return fmt.Errorf("file extension %q is not allowed", ext)
	}
	return nil
}

// CheckSize enforces the file size cap.
func (w *Workspace) CheckSize(size int64) error {
	if w.maxFileSize > 0 && size > w.maxFileSize {
		return fmt.Errorf("file size %d exceeds the %d byte limit", size, w.maxFileSize)
	}
	return nil
}
