package vision

import (
	"fmt"
	"log/slog"

	"snapname/internal/application"
	"snapname/internal/config"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

// New returns the backend for kind. Unknown kinds are a configuration error.
func New(kind domain.ProviderKind, s Settings) (ports.Analyzer, error) {
	switch kind {
	case domain.ProviderGemini:
		return NewGemini(s), nil
	case domain.ProviderLMStudio:
		return NewLMStudio(s), nil
	case domain.ProviderOllama:
		return NewOllama(s), nil
	default:
		return nil, &application.ConfigError{
			Field:   "provider",
			Message: fmt.Sprintf("unknown provider %q", kind),
		}
	}
}

// FromSnapshot builds the backend selected by the configuration snapshot
func FromSnapshot(snap *config.Snapshot, logger *slog.Logger) (ports.Analyzer, error) {
	kind, err := snap.Kind()
	if err != nil {
		return nil, &application.ConfigError{Field: "provider", Message: err.Error()}
	}
	pc := snap.ProviderConfig(kind)
	temperature := pc.Temperature
	return New(kind, Settings{
		BaseURL:     pc.BaseURL,
		Model:       pc.Model,
		APIKey:      pc.APIKey,
		MaxTokens:   pc.MaxTokens,
		Temperature: &temperature,
		Timeout:     pc.Timeout,
		MaxRetries:  snap.Retry.MaxRetries,
		RetryDelay:  snap.Retry.Delay,
		Logger:      logger,
	})
}

// ModelName reports the model the snapshot selects for its provider
func ModelName(snap *config.Snapshot) string {
	kind, err := snap.Kind()
	if err != nil {
		return ""
	}
	return snap.ProviderConfig(kind).Model
}
