package domain

import "time"

// AnalysisResult is the outcome of one analyzer invocation.
// When Success is false, Text holds the fallback name and Err the reason.
type AnalysisResult struct {
	Text     string
	Provider ProviderKind
	Elapsed  time.Duration
	Success  bool
	Err      error
}

// ClipboardAttempt records one strategy's outcome during a publish
type ClipboardAttempt struct {
	Strategy string
	Success  bool
	Elapsed  time.Duration
	Err      error
}
