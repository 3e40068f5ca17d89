package engine

import (
	"encoding/json"
	"strings"
)

// ActionKind discriminates the closed set of actions a model reply may
// request.
type ActionKind string

const (
	ActionReadFile     ActionKind = "read_file"
	ActionWriteFile    ActionKind = "write_file"
	ActionListDir      ActionKind = "list_dir"
	ActionRunCommand   ActionKind = "run_command"
	ActionAnalyzeFile  ActionKind = "analyze_file"
	ActionSearchCode   ActionKind = "search_code"
	ActionReviewFile   ActionKind = "review_file"
	ActionSecurityScan ActionKind = "security_scan"
	ActionGitStatus    ActionKind = "git_status"
	ActionGitDiff      ActionKind = "git_diff"
	ActionGitLog       ActionKind = "git_log"
	ActionFinish       ActionKind = "finish"
)

// Action is a structured instruction extracted from model text: a tool
// invocation with its arguments, or a finish signal.
type Action struct {
	Kind ActionKind
	// Args carries the full decoded object, including the discriminant,
	// so the gateway can log exactly what the model asked for.
	Args map[string]any
}

// IsFinish reports whether the action is the finish signal.
func (a *Action) IsFinish() bool { return a != nil && a.Kind == ActionFinish }

// StringArg returns the named argument as a string, or "" when absent or
// of another type.
func (a *Action) StringArg(key string) string {
	if a == nil {
		return ""
	}
	s, _ := a.Args[key].(string)
	return s
}

var actionKinds = map[ActionKind]bool{
	ActionReadFile:     true,
	ActionWriteFile:    true,
	ActionListDir:      true,
	ActionRunCommand:   true,
	ActionAnalyzeFile:  true,
	ActionSearchCode:   true,
	ActionReviewFile:   true,
	ActionSecurityScan: true,
	ActionGitStatus:    true,
	ActionGitDiff:      true,
	ActionGitLog:       true,
	ActionFinish:       true,
}

// ParseObject extracts a JSON object from free-form model text.
// Extraction is attempted in strict priority order, each stage falling
// through to the next on failure; explicit tagging is trusted over
// heuristic slicing:
//
//  1. the whole trimmed text, when it starts with "{"
//  2. the inner text of a ```json fenced block
//  3. the inner text of any fenced block, when it starts with "{"
//  4. the substring between the first "{" and the last "}"
//
// It returns nil when every stage fails or the parsed value is not an
// object; it never returns an error.
func ParseObject(content string) map[string]any {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		if obj := decodeObject(trimmed); obj != nil {
			return obj
		}
	}

	if inner, ok := fencedBlock(content, "```json"); ok {
		if obj := decodeObject(inner); obj != nil {
			return obj
		}
	}

	if inner, ok := fencedBlock(content, "```"); ok && strings.HasPrefix(inner, "{") {
		if obj := decodeObject(inner); obj != nil {
			return obj
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if obj := decodeObject(content[start : end+1]); obj != nil {
			return obj
		}
	}

	return nil
}

// ParseAction layers the tagged Action decode over ParseObject. It
// returns nil when no object is found or the object does not carry a
// recognized "action" discriminant.
func ParseAction(content string) *Action {
	obj := ParseObject(content)
	if obj == nil {
		return nil
	}
	kindStr, _ := obj["action"].(string)
	kind := ActionKind(kindStr)
	if !actionKinds[kind] {
		return nil
	}
	return &Action{Kind: kind, Args: obj}
}

// fencedBlock returns the trimmed text between the given opening fence
// and the next closing fence.
func fencedBlock(content, fence string) (string, bool) {
	idx := strings.Index(content, fence)
	if idx < 0 {
		return "", false
	}
	rest := content[idx+len(fence):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// decodeObject parses text as a single JSON object, returning nil for
// anything else (arrays, scalars, malformed input).
func decodeObject(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil
	}
	return obj
}
