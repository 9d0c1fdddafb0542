package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

const (
	lmstudioTimeout    = 60 * time.Second
	lmstudioMaxRetries = 2
)

// LMStudio talks to a local OpenAI-compatible server
type LMStudio struct {
	settings Settings
	client   openai.Client

	mu    sync.Mutex
	model string
}

var _ ports.Analyzer = (*LMStudio)(nil)

// NewLMStudio creates a local chat-completions backend. The client's own
// retries are off so every backend shares withRetry's 5xx-only policy.
func NewLMStudio(s Settings) *LMStudio {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = lmstudioTimeout
	}
	apiKey := s.APIKey
	if apiKey == "" {
		apiKey = "lm-studio"
	}

	opts := []option.RequestOption{
		option.WithBaseURL(s.BaseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if s.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(s.HTTPClient))
	}

	return &LMStudio{
		settings: s,
		client:   openai.NewClient(opts...),
		model:    s.Model,
	}
}

func (l *LMStudio) Kind() domain.ProviderKind {
	return domain.ProviderLMStudio
}

// Analyze sends the image as a data URL inside a chat completion
func (l *LMStudio) Analyze(ctx context.Context, imagePath string) domain.AnalysisResult {
	return analyze(ctx, l.Kind(), imagePath, func(ctx context.Context, data []byte, mime string) (string, error) {
		return withRetry(ctx, l.settings, lmstudioMaxRetries, func() (string, error) {
			return l.generate(ctx, data, mime)
		})
	})
}

func (l *LMStudio) generate(ctx context.Context, data []byte, mime string) (string, error) {
	model, err := l.resolveModel(ctx)
	if err != nil {
		return "", err
	}

	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(ports.Instruction),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
				}),
			}),
		},
		MaxTokens:   openai.Int(int64(l.settings.maxTokens())),
		Temperature: openai.Float(l.settings.temperature()),
	})
	if err != nil {
		return "", l.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return "", &application.BackendError{Provider: l.Kind(), Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// resolveModel returns the configured model, or the first loaded one
func (l *LMStudio) resolveModel(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.model != "" {
		return l.model, nil
	}
	models, err := l.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", &application.BackendError{Provider: l.Kind(), Status: 404, Message: "no model loaded"}
	}
	l.model = models[0]
	return l.model, nil
}

// ListModels returns the models the server has loaded
func (l *LMStudio) ListModels(ctx context.Context) ([]string, error) {
	page, err := l.client.Models.List(ctx)
	if err != nil {
		return nil, l.wrap(err)
	}
	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// TestConnection checks that the server answers and serves the configured model
func (l *LMStudio) TestConnection(ctx context.Context) error {
	models, err := l.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return &application.BackendError{Provider: l.Kind(), Status: 404, Message: "no model loaded"}
	}
	if l.settings.Model == "" {
		return nil
	}
	for _, m := range models {
		if m == l.settings.Model {
			return nil
		}
	}
	return &application.BackendError{
		Provider: l.Kind(),
		Status:   404,
		Message:  fmt.Sprintf("model %q is not loaded", l.settings.Model),
	}
}

func (l *LMStudio) wrap(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return statusError(l.Kind(), apiErr.StatusCode, "", err)
	}
	return transportError(l.Kind(), err)
}
