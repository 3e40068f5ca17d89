package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/oskhen/revue/internal/engine"
	"github.com/oskhen/revue/internal/index"
)

// Searcher is the slice of the search index the tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]index.Hit, error)
}

// NewSearchCodeTool exposes full-text search over the workspace index.
func NewSearchCodeTool(searcher Searcher) engine.Tool {
	return engine.Tool{
		Name:        "search_code",
		Description: "Searches the indexed workspace for code matching a free-text query and returns the top files with snippets.",
		SchemaJSON:  `{"type":"object","properties":{"query":{"type":"string","description":"Free-text search query"},"limit":{"type":"number","description":"Maximum number of results (default 10)"}},"required":["query"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if strings.TrimSpace(query) == "" {
				return "", fmt.Errorf("query is required")
			}

			limit := 10
			if n, ok := args["limit"].(float64); ok && n > 0 {
				limit = int(n)
			}

			hits, err := searcher.Search(ctx, query, limit)
			if err != nil {
				return "", fmt.Errorf("search failed: %w", err)
			}
			if len(hits) == 0 {
				return fmt.Sprintf("No results for %q.", query), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Found %d result(s) for %q:\n", len(hits), query)
			for i, hit := range hits {
				fmt.Fprintf(&b, "\n%d. %s (%s, score %.2f)\n%s\n", i+1, hit.Path, hit.Lang, hit.Score, indentSnippet(hit.Snippet))
			}
			return b.String(), nil
		},
	}
}

func indentSnippet(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
