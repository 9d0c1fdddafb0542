package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"snapname/internal/application"
	"snapname/internal/domain"
)

const (
	defaultMaxTokens   = 50
	defaultTemperature = 0.3
	defaultRetryDelay  = time.Second
)

var errEmptyResponse = errors.New("empty response")

// Settings carries the connection parameters of one backend
type Settings struct {
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int

	// Temperature is sent as given when set, 0 included
	Temperature *float64

	// MaxRetries overrides the backend's default retry count when set, 0 included
	MaxRetries *int

	Timeout    time.Duration
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (s Settings) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return defaultMaxTokens
}

func (s Settings) temperature() float64 {
	if s.Temperature != nil {
		return *s.Temperature
	}
	return defaultTemperature
}

func (s Settings) retries(def int) int {
	if s.MaxRetries != nil && *s.MaxRetries >= 0 {
		return *s.MaxRetries
	}
	return def
}

func (s Settings) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s Settings) httpClient(def time.Duration) *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = def
	}
	return &http.Client{Timeout: timeout}
}

func (s Settings) baseURL() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// generateFunc issues one inference request for the raw image bytes
type generateFunc func(ctx context.Context, data []byte, mime string) (string, error)

// analyze reads and encodes the image, runs generate and cleans the answer.
// Any failure yields a fallback name instead of an error.
func analyze(ctx context.Context, kind domain.ProviderKind, imagePath string, generate generateFunc) domain.AnalysisResult {
	start := time.Now()

	text, err := func() (string, error) {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return "", fmt.Errorf("failed to read image: %w", err)
		}
		raw, err := generate(ctx, data, domain.MimeType(imagePath))
		if err != nil {
			return "", err
		}
		text := CleanResponse(raw)
		if text == "" {
			return "", &application.BackendError{Provider: kind, Err: errEmptyResponse}
		}
		return text, nil
	}()

	if err != nil {
		stem, _ := domain.SplitName(imagePath)
		return domain.AnalysisResult{
			Text:     domain.FallbackName(stem),
			Provider: kind,
			Elapsed:  time.Since(start),
			Err:      err,
		}
	}
	return domain.AnalysisResult{
		Text:     text,
		Provider: kind,
		Elapsed:  time.Since(start),
		Success:  true,
	}
}

// CleanResponse reduces a model answer to the bare stem it was asked for:
// first non-empty line outside code fences, without quotes or an echoed extension.
func CleanResponse(text string) string {
	var line string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "```") {
			continue
		}
		line = l
		break
	}

	line = strings.Trim(line, "\"'`* ")
	if domain.IsSupportedImage(line) {
		line = strings.TrimSuffix(line, filepath.Ext(line))
	}
	return strings.TrimSpace(line)
}

// withRetry runs op with exponential backoff. Permanent errors stop at once.
func withRetry[T any](ctx context.Context, s Settings, defRetries int, op func() (T, error)) (T, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.RetryDelay
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = defaultRetryDelay
	}

	log := s.logger()
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && application.IsPermanent(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(exp),
		backoff.WithMaxTries(uint(s.retries(defRetries)+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Debug("retrying backend call", "error", err, "delay_ms", d.Milliseconds())
		}),
	)
}

func transportError(kind domain.ProviderKind, err error) error {
	return &application.BackendError{Provider: kind, Err: err}
}

// statusError wraps an HTTP-level failure reported by a client library
func statusError(kind domain.ProviderKind, status int, msg string, err error) error {
	return &application.BackendError{Provider: kind, Status: status, Message: msg, Err: err}
}
