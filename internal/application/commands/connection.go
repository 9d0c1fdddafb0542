package commands

import (
	"context"
	"fmt"
	"time"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

// ConnectionResult contains the outcome of a backend connection test
type ConnectionResult struct {
	Provider domain.ProviderKind
	Success  bool
	// Permanent is set when retrying cannot help (bad key, missing model)
	Permanent bool
	Message   string
	Elapsed   time.Duration
	Err       error
}

// TestConnectionCommand validates that the selected backend is usable
type TestConnectionCommand struct {
	analyzer ports.Analyzer
}

// NewTestConnectionCommand creates a new TestConnectionCommand
func NewTestConnectionCommand(analyzer ports.Analyzer) *TestConnectionCommand {
	return &TestConnectionCommand{analyzer: analyzer}
}

// Execute issues the backend's minimal request
func (c *TestConnectionCommand) Execute(ctx context.Context) *ConnectionResult {
	start := time.Now()
	err := c.analyzer.TestConnection(ctx)

	result := &ConnectionResult{
		Provider: c.analyzer.Kind(),
		Success:  err == nil,
		Elapsed:  time.Since(start),
		Err:      err,
	}
	if err != nil {
		result.Permanent = application.IsPermanent(err)
		result.Message = err.Error()
	} else {
		result.Message = fmt.Sprintf("%s is reachable", result.Provider)
	}
	return result
}
