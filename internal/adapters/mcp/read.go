package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"snapname/internal/application/commands"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

const defaultRecentLimit = 20

// RegisterReadTools adds the tools that never touch the filesystem.
// history may be nil, in which case recent_renames is not offered.
func RegisterReadTools(s *server.MCPServer, p *commands.Pipeline, history ports.HistoryStore) {
	s.AddTool(suggestNameTool(), suggestNameHandler(p))
	s.AddTool(previewBatchTool(), previewBatchHandler(p))
	if history != nil {
		s.AddTool(recentRenamesTool(), recentRenamesHandler(history))
	}
}

// --- suggest_name ---

func suggestNameTool() mcp.Tool {
	return mcp.NewTool("suggest_name",
		mcp.WithDescription("Ask the vision backend for a descriptive file name for one image. Nothing is renamed."),
		mcp.WithString("path",
			mcp.Description("Absolute path of the image"),
			mcp.Required(),
		),
		mcp.WithBoolean("force",
			mcp.Description("Analyze even if the file already looks descriptively named"),
		),
	)
}

func suggestNameHandler(p *commands.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return toolError(fmt.Errorf("path is required"))
		}

		cmd := commands.NewSuggestCommand(p, path)
		cmd.Force = req.GetBool("force", false)
		entry, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatEntry(entry)), nil
	}
}

// --- preview_batch ---

func previewBatchTool() mcp.Tool {
	return mcp.NewTool("preview_batch",
		mcp.WithDescription("Preview the names every image in a directory would get. Nothing is renamed."),
		mcp.WithString("dir",
			mcp.Description("Absolute path of the directory"),
			mcp.Required(),
		),
		mcp.WithBoolean("mock",
			mcp.Description("Use generated names instead of calling the vision backend"),
		),
		mcp.WithBoolean("json",
			mcp.Description("Return the full report as JSON"),
		),
	)
}

func previewBatchHandler(p *commands.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dir := req.GetString("dir", "")
		if dir == "" {
			return toolError(fmt.Errorf("dir is required"))
		}

		report, err := commands.NewBatchCommand(p, dir).Plan(ctx, commands.PlanOptions{
			Mock: req.GetBool("mock", false),
		})
		if err != nil {
			return toolError(err)
		}

		if req.GetBool("json", false) {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return toolError(err)
			}
			return mcp.NewToolResultText(string(data)), nil
		}
		return mcp.NewToolResultText(formatReport(report)), nil
	}
}

// --- recent_renames ---

func recentRenamesTool() mcp.Tool {
	return mcp.NewTool("recent_renames",
		mcp.WithDescription("List the most recent renames and copies, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records (default 20)"),
		),
	)
}

func recentRenamesHandler(history ports.HistoryStore) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultRecentLimit)
		if limit <= 0 {
			limit = defaultRecentLimit
		}

		records, err := history.Recent(ctx, limit)
		if err != nil {
			return toolError(err)
		}
		if len(records) == 0 {
			return mcp.NewToolResultText("No renames recorded."), nil
		}

		var sb strings.Builder
		for _, r := range records {
			fmt.Fprintf(&sb, "%s  %s -> %s  (%s, %s)\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.OriginalPath, r.FinalPath, r.Mode, r.Provider)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntry(e domain.ChangeEntry) string {
	base := filepath.Base(e.OriginalPath)
	switch e.Status {
	case domain.StatusRename:
		s := fmt.Sprintf("%s -> %s", base, e.FinalName)
		if e.IsFallback {
			s += " (fallback: the backend did not answer)"
		}
		return s
	case domain.StatusNoChange:
		return fmt.Sprintf("%s already has the suggested name", base)
	default:
		return fmt.Sprintf("%s: %s (%s)", base, e.Status, e.Reason)
	}
}

func formatReport(r *domain.BatchReport) string {
	var sb strings.Builder
	for _, e := range r.Entries {
		sb.WriteString(formatEntry(e))
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\n%d files: %d processed, %d skipped, %d errors\n",
		r.TotalFiles, r.Processed, r.Skipped, r.Errors)
	return sb.String()
}
