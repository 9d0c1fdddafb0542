package vision

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

const (
	geminiTimeout    = 30 * time.Second
	geminiMaxRetries = 3
	geminiAPIVersion = "v1beta"
)

// Gemini talks to the Google Generative Language API through the genai SDK
type Gemini struct {
	settings Settings

	once    sync.Once
	client  *genai.Client
	initErr error
}

var _ ports.Analyzer = (*Gemini)(nil)

// NewGemini creates a remote backend. The SDK client is built on first use.
func NewGemini(s Settings) *Gemini {
	return &Gemini{settings: s}
}

func (g *Gemini) Kind() domain.ProviderKind {
	return domain.ProviderGemini
}

func (g *Gemini) sdk(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     g.settings.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.settings.httpClient(geminiTimeout),
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    g.settings.baseURL() + "/",
				APIVersion: geminiAPIVersion,
			},
		})
		if err != nil {
			g.initErr = &application.ConfigError{Field: "providers.gemini", Message: err.Error()}
			return
		}
		g.client = client
	})
	return g.client, g.initErr
}

// Analyze describes the image, retrying transient failures
func (g *Gemini) Analyze(ctx context.Context, imagePath string) domain.AnalysisResult {
	return analyze(ctx, g.Kind(), imagePath, func(ctx context.Context, data []byte, mime string) (string, error) {
		return withRetry(ctx, g.settings, geminiMaxRetries, func() (string, error) {
			return g.generate(ctx, data, mime)
		})
	})
}

func (g *Gemini) generate(ctx context.Context, data []byte, mime string) (string, error) {
	client, err := g.sdk(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ports.Instruction),
			genai.NewPartFromBytes(data, mime),
		}, genai.RoleUser),
	}
	temperature := float32(g.settings.temperature())

	resp, err := client.Models.GenerateContent(ctx, g.settings.Model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.settings.maxTokens()),
		Temperature:     &temperature,
	})
	if err != nil {
		return "", g.wrap(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", statusError(g.Kind(), 0, "no candidates in response", nil)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// TestConnection fetches the configured model's metadata
func (g *Gemini) TestConnection(ctx context.Context) error {
	client, err := g.sdk(ctx)
	if err != nil {
		return err
	}
	_, err = withRetry(ctx, g.settings, geminiMaxRetries, func() (*genai.Model, error) {
		m, err := client.Models.Get(ctx, g.settings.Model, nil)
		if err != nil {
			return nil, g.wrap(err)
		}
		return m, nil
	})
	return err
}

// wrap keeps the HTTP status of API errors so 4xx answers are not retried
func (g *Gemini) wrap(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(g.Kind(), apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusError(g.Kind(), apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return transportError(g.Kind(), err)
}
