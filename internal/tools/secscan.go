package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oskhen/revue/internal/engine"
)

// secPattern is one scanner rule.
type secPattern struct {
	name     string
	severity string
	re       *regexp.Regexp
}

var secPatterns = []secPattern{
	{"hardcoded secret", "HIGH", regexp.MustCompile(`(?i)(password|secret|api_?key|token)\s*[:=]\s*["'][^"']{8,}["']`)},
	{"private key material", "HIGH", regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`)},
	{"eval of dynamic input", "HIGH", regexp.MustCompile(`\beval\s*\(`)},
	{"shell command injection risk", "HIGH", regexp.MustCompile(`(os\.system|subprocess\.call|exec\.Command)\s*\([^)]*\+`)},
	{"SQL built by concatenation", "MEDIUM", regexp.MustCompile(`(?i)(select|insert|update|delete)\s.*["']\s*\+`)},
	{"unsafe deserialization", "MEDIUM", regexp.MustCompile(`pickle\.loads?\s*\(`)},
	{"weak hash algorithm", "LOW", regexp.MustCompile(`\b(md5|sha1)\s*\(`)},
	{"debug mode enabled", "LOW", regexp.MustCompile(`(?i)debug\s*=\s*true`)},
}

// scannableExts limits the scan to source files.
var scannableExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true, ".java": true,
	".rb": true, ".php": true, ".sh": true, ".yaml": true, ".yml": true,
	".json": true, ".env": true,
}

// NewSecurityScanTool scans a file or directory tree for common
// insecure patterns.
func NewSecurityScanTool(ws *Workspace) engine.Tool {
	return engine.Tool{
		Name:        "security_scan",
		Description: "Scans a file or directory for common security issues: hardcoded secrets, injection risks, weak crypto.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"File or directory path relative to the workspace root"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			full, err := ws.Resolve(path)
			if err != nil {
				return "", err
			}

			info, err := os.Stat(full)
			if os.IsNotExist(err) {
				return fmt.Sprintf("Error: Path not found: %s", path), nil
			}
			if err != nil {
				return "", err
			}

			var findings []string
			scanned := 0
			if info.IsDir() {
				err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
					if err != nil || d.IsDir() {
						return err
					}
					if !scannableExts[strings.ToLower(filepath.Ext(p))] {
						return nil
					}
					rel, _ := filepath.Rel(ws.Root(), p)
					found, err := scanFile(p, rel)
					if err != nil {
						return nil // unreadable files are skipped, not fatal
					}
					findings = append(findings, found...)
					scanned++
					return nil
				})
				if err != nil {
					return "", fmt.Errorf("scan failed: %w", err)
				}
			} else {
				findings, err = scanFile(full, path)
				if err != nil {
					return "", err
				}
				scanned = 1
			}

			if len(findings) == 0 {
				return fmt.Sprintf("Security scan of %s: %d file(s) scanned, no issues found.", path, scanned), nil
			}
			return fmt.Sprintf("Security scan of %s: %d file(s) scanned, %d issue(s) found:\n%s",
				path, scanned, len(findings), strings.Join(findings, "\n")), nil
		},
	}
}

func scanFile(fullPath, displayPath string) ([]string, error) {
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", displayPath, err)
	}

	var findings []string
	for i, line := range strings.Split(string(data), "\n") {
		for _, p := range secPatterns {
			if p.re.MatchString(line) {
				findings = append(findings, fmt.Sprintf("  [%s] %s:%d %s", p.severity, displayPath, i+1, p.name))
			}
		}
	}
	return findings, nil
}
