package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "snapname/internal/adapters/mcp"
	"snapname/internal/app"
	"snapname/internal/config"
	"snapname/internal/logger"
	"snapname/internal/ports"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", config.Path(), "path to the config file")
	providerFlag := flag.String("provider", "", "override the configured vision provider")
	flag.Parse()

	snap, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("snapname-mcp: %v", err)
	}
	if *providerFlag != "" {
		snap.Provider = *providerFlag
	}
	if err := snap.Validate(false); err != nil {
		log.Fatalf("snapname-mcp: %v", err)
	}

	// stdout carries the protocol
	l := logger.InitLogger(snap.LogLevel, snap.LogFormat, os.Stderr)

	rt, err := app.NewRuntime(snap, l)
	if err != nil {
		log.Fatalf("snapname-mcp: %v", err)
	}
	defer rt.Close()

	p, err := rt.Pipeline(snap)
	if err != nil {
		log.Fatalf("snapname-mcp: %v", err)
	}

	mcpServer := server.NewMCPServer(
		"snapname-mcp",
		version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	// a nil *sqlite.History must stay a nil interface
	var history ports.HistoryStore
	if rt.History != nil {
		history = rt.History
	}
	mcpadapter.RegisterReadTools(mcpServer, p, history)
	mcpadapter.RegisterWriteTools(mcpServer, p)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("snapname-mcp: %v", err)
	}
}
