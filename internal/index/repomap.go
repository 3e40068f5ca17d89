package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxRepoMapFiles bounds the repository map so huge workspaces don't
// blow the model context.
const maxRepoMapFiles = 200

// defMarkers are the line prefixes that count as top-level definitions
// in the repository map.
var defMarkers = map[string][]string{
	"go":     {"func ", "type "},
	"python": {"def ", "class ", "async def "},
	"js":     {"function ", "class ", "export function ", "export class "},
	"ts":     {"function ", "class ", "interface ", "export function ", "export class ", "export interface "},
	"rust":   {"fn ", "pub fn ", "struct ", "pub struct ", "enum ", "pub enum ", "trait ", "pub trait "},
	"java":   {"public class ", "public interface ", "class ", "interface "},
}

// BuildRepoMap renders a compact picture of the workspace: the file
// tree grouped by directory, with top-level definitions under each
// source file. The result is injected into agent context.
func BuildRepoMap(root string) (string, error) {
	files, err := NewWalker(root).Walk()
	if err != nil {
		return "", fmt.Errorf("workspace walk failed: %w", err)
	}
	if len(files) == 0 {
		return "(empty workspace)", nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	truncated := false
	if len(files) > maxRepoMapFiles {
		files = files[:maxRepoMapFiles]
		truncated = true
	}

	var b strings.Builder
	b.WriteString("Repository layout:\n")
	lastDir := ""
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if dir != lastDir {
			if dir == "." {
				b.WriteString("./\n")
			} else {
				fmt.Fprintf(&b, "%s/\n", dir)
			}
			lastDir = dir
		}
		fmt.Fprintf(&b, "  %s\n", filepath.Base(f.Path))
		for _, def := range fileDefinitions(filepath.Join(root, f.Path), f.Lang) {
			fmt.Fprintf(&b, "    %s\n", def)
		}
	}
	if truncated {
		fmt.Fprintf(&b, "... (showing first %d files)\n", maxRepoMapFiles)
	}
	return b.String(), nil
}

// fileDefinitions extracts top-level definition lines, capped per file.
func fileDefinitions(path, lang string) []string {
	markers, ok := defMarkers[lang]
	if !ok {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() > maxIndexedFileSize {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var defs []string
	for _, line := range strings.Split(string(data), "\n") {
		for _, marker := range markers {
			if strings.HasPrefix(line, marker) {
				def := strings.TrimRight(line, " {:")
				if len(def) > 100 {
					def = def[:100] + "..."
				}
				defs = append(defs, def)
				break
			}
		}
		if len(defs) >= 10 {
			break
		}
	}
	return defs
}
