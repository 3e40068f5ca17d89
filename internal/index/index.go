package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Hit is one search result.
type Hit struct {
	Path    string  `json:"path"`
	Lang    string  `json:"lang"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// Index is a keyword search index over workspace source files, one
// document per file.
type Index struct {
	root   string
	walker *Walker
	bleve  bleve.Index
}

// maxIndexedFileSize skips pathological files; nothing useful is
// searched in megabyte blobs.
const maxIndexedFileSize = 1 << 20

// Open opens or creates the index at indexPath for the workspace root.
// A corrupted index is deleted and rebuilt rather than failing startup.
func Open(root, indexPath string) (*Index, error) {
	b, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		b, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create search index: %w", err)
		}
	} else if err != nil {
		log.Printf("search index at %s unusable (%v), recreating", indexPath, err)
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted index: %w", err)
		}
		b, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate search index: %w", err)
		}
	}

	return &Index{root: root, walker: NewWalker(root), bleve: b}, nil
}

// Close closes the underlying index.
func (ix *Index) Close() error {
	return ix.bleve.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	docMapping.AddFieldMappingsAt("path", pathField)

	langField := bleve.NewTextFieldMapping()
	langField.Analyzer = keyword.Name
	langField.Store = true
	docMapping.AddFieldMappingsAt("lang", langField)

	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	docMapping.AddFieldMappingsAt("content", contentField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Build indexes every indexable file under the root in one batch.
func (ix *Index) Build(ctx context.Context) (int, error) {
	files, err := ix.walker.Walk()
	if err != nil {
		return 0, fmt.Errorf("workspace walk failed: %w", err)
	}

	batch := ix.bleve.NewBatch()
	indexed := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return indexed, ctx.Err()
		}
		doc, ok := ix.readDoc(f.Path, f.Lang)
		if !ok {
			continue
		}
		if err := batch.Index(f.Path, doc); err != nil {
			return indexed, fmt.Errorf("failed to batch %s: %w", f.Path, err)
		}
		indexed++
	}

	if err := ix.bleve.Batch(batch); err != nil {
		return 0, fmt.Errorf("index batch failed: %w", err)
	}
	log.Printf("indexed %d files under %s", indexed, ix.root)
	return indexed, nil
}

// Update re-indexes one file after a change.
func (ix *Index) Update(relPath string) error {
	lang := DetectLang(relPath)
	if lang == "" || ix.walker.Ignored(relPath) {
		return nil
	}
	doc, ok := ix.readDoc(relPath, lang)
	if !ok {
		// Unreadable now; treat as removed.
		return ix.bleve.Delete(relPath)
	}
	return ix.bleve.Index(relPath, doc)
}

// Remove drops a file from the index.
func (ix *Index) Remove(relPath string) error {
	return ix.bleve.Delete(relPath)
}

func (ix *Index) readDoc(relPath, lang string) (map[string]any, bool) {
	full := filepath.Join(ix.root, relPath)
	info, err := os.Stat(full)
	if err != nil || info.Size() > maxIndexedFileSize {
		return nil, false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, false
	}
	return map[string]any{
		"path":    relPath,
		"lang":    lang,
		"content": string(data),
	}, true
}

// Search returns the top matching files for a free-text query.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	req.Fields = []string{"path", "lang", "content"}

	result, err := ix.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hit := Hit{Path: h.ID, Score: h.Score}
		if lang, ok := h.Fields["lang"].(string); ok {
			hit.Lang = lang
		}
		if content, ok := h.Fields["content"].(string); ok {
			hit.Snippet = snippet(content, query)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// snippet extracts the lines around the first query-term occurrence.
func snippet(content, query string) string {
	terms := strings.Fields(strings.ToLower(query))
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				start := i - 1
				if start < 0 {
					start = 0
				}
				end := i + 2
				if end > len(lines) {
					end = len(lines)
				}
				return strings.Join(lines[start:end], "\n")
			}
		}
	}
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return strings.Join(lines, "\n")
}
