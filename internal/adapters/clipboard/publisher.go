package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

// MaxStrategyTimeout caps the time any single strategy may take
const MaxStrategyTimeout = 10 * time.Second

// Strategy is one way of putting a file on the clipboard
type Strategy struct {
	Name string
	Run  func(ctx context.Context, filePath string) error
}

// Publisher tries strategies in order until one succeeds
type Publisher struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *slog.Logger
}

var _ ports.ClipboardPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher over an ordered strategy list.
// timeout is clamped to MaxStrategyTimeout.
func NewPublisher(strategies []Strategy, timeout time.Duration, logger *slog.Logger) *Publisher {
	if timeout <= 0 || timeout > MaxStrategyTimeout {
		timeout = MaxStrategyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{strategies: strategies, timeout: timeout, logger: logger}
}

// Publish runs the chain. Strategy failures are logged at debug level and
// only exhaustion of every strategy is returned as an error.
func (p *Publisher) Publish(ctx context.Context, filePath string) ([]domain.ClipboardAttempt, error) {
	attempts := make([]domain.ClipboardAttempt, 0, len(p.strategies))

	for _, s := range p.strategies {
		start := time.Now()
		err := p.run(ctx, s, filePath)
		attempt := domain.ClipboardAttempt{
			Strategy: s.Name,
			Success:  err == nil,
			Elapsed:  time.Since(start),
			Err:      err,
		}
		attempts = append(attempts, attempt)

		p.logger.Debug("clipboard attempt",
			"path", filePath,
			"strategy", s.Name,
			"success", attempt.Success,
			"elapsed_ms", attempt.Elapsed.Milliseconds(),
			"error", err,
		)

		if err == nil {
			return attempts, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return attempts, fmt.Errorf("%w: %d tried", application.ErrClipboardExhausted, len(attempts))
}

func (p *Publisher) run(ctx context.Context, s Strategy, filePath string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return s.Run(ctx, filePath)
}
