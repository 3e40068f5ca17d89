package tools

import (
	"time"

	"github.com/oskhen/revue/internal/engine"
	"github.com/oskhen/revue/internal/sandbox"
)

// NewRegistry builds the full tool set over a workspace. A nil searcher
// omits search_code; a nil runner omits run_command and the git tools.
func NewRegistry(ws *Workspace, runner sandbox.Runner, searcher Searcher, commandTimeout time.Duration) engine.Registry {
	registry := engine.Registry{}
	add := func(t engine.Tool) { registry[t.Name] = t }

	add(NewReadFileTool(ws))
	add(NewWriteFileTool(ws))
	add(NewListDirTool(ws))
	add(NewAnalyzeFileTool(ws))
	add(NewSecurityScanTool(ws))
	if runner != nil {
		add(NewRunCommandTool(ws, runner, commandTimeout))
		add(NewGitStatusTool(ws, runner))
		add(NewGitDiffTool(ws, runner))
		add(NewGitLogTool(ws, runner))
	}
	if searcher != nil {
		add(NewSearchCodeTool(searcher))
	}
	return registry
}
