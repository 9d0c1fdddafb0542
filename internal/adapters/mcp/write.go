package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"snapname/internal/application"
	"snapname/internal/application/commands"
	"snapname/internal/domain"
)

// RegisterWriteTools adds the tools that rename files.
func RegisterWriteTools(s *server.MCPServer, p *commands.Pipeline) {
	s.AddTool(renameImageTool(), renameImageHandler(p, newInFlight()))
}

// inFlight holds the paths a rename is currently working on
type inFlight struct {
	mu    sync.Mutex
	paths map[string]bool
}

func newInFlight() *inFlight {
	return &inFlight{paths: make(map[string]bool)}
}

// claim marks path as busy. It returns false if it already was.
func (f *inFlight) claim(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paths[path] {
		return false
	}
	f.paths[path] = true
	return true
}

func (f *inFlight) release(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.paths, path)
}

// --- rename_image ---

func renameImageTool() mcp.Tool {
	return mcp.NewTool("rename_image",
		mcp.WithDescription("Rename one image after what it shows and put it on the clipboard when enabled. Returns the new path."),
		mcp.WithString("path",
			mcp.Description("Absolute path of the image"),
			mcp.Required(),
		),
		mcp.WithBoolean("force",
			mcp.Description("Rename even if the file already looks descriptively named"),
		),
	)
}

func renameImageHandler(p *commands.Pipeline, busy *inFlight) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return toolError(fmt.Errorf("path is required"))
		}
		path = filepath.Clean(path)
		if !busy.claim(path) {
			return toolError(fmt.Errorf("%s is already being processed", path))
		}
		defer busy.release(path)

		cmd := commands.NewProcessCommand(p, path)
		cmd.RunID = application.NewID()
		cmd.Force = req.GetBool("force", false)
		res, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		switch res.Status {
		case domain.StatusSkip:
			return mcp.NewToolResultText(fmt.Sprintf("Skipped %s: %s", res.OriginalPath, res.Reason)), nil
		case domain.StatusNoChange:
			return mcp.NewToolResultText(fmt.Sprintf("%s already has the suggested name", res.OriginalPath)), nil
		}

		msg := fmt.Sprintf("Renamed %s -> %s", res.OriginalPath, res.FinalPath)
		if res.Candidate.IsFallback {
			msg += " (fallback name)"
		}
		return mcp.NewToolResultText(msg), nil
	}
}
