package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"snapname/internal/application"
	"snapname/internal/domain"
	"snapname/internal/ports"
)

const (
	ollamaTimeout    = 60 * time.Second
	ollamaMaxRetries = 2
)

// Ollama talks to a local Ollama daemon through its api client
type Ollama struct {
	settings Settings
	client   *api.Client
	// pulls can take minutes; bounded by ctx only
	pullClient *api.Client
	initErr    error
}

var (
	_ ports.Analyzer     = (*Ollama)(nil)
	_ ports.ModelManager = (*Ollama)(nil)
)

// NewOllama creates a local daemon backend
func NewOllama(s Settings) *Ollama {
	o := &Ollama{settings: s}

	base, err := url.Parse(s.baseURL())
	if err != nil || base.Scheme == "" || base.Host == "" {
		o.initErr = &application.ConfigError{
			Field:   "providers.ollama.base_url",
			Message: fmt.Sprintf("invalid base URL %q", s.BaseURL),
		}
		return o
	}

	pull := s.HTTPClient
	if pull == nil {
		pull = &http.Client{}
	}
	o.client = api.NewClient(base, s.httpClient(ollamaTimeout))
	o.pullClient = api.NewClient(base, pull)
	return o
}

func (o *Ollama) Kind() domain.ProviderKind {
	return domain.ProviderOllama
}

// Analyze describes the image with a non-streaming generate call
func (o *Ollama) Analyze(ctx context.Context, imagePath string) domain.AnalysisResult {
	return analyze(ctx, o.Kind(), imagePath, func(ctx context.Context, data []byte, _ string) (string, error) {
		return withRetry(ctx, o.settings, ollamaMaxRetries, func() (string, error) {
			return o.generate(ctx, data)
		})
	})
}

func (o *Ollama) generate(ctx context.Context, data []byte) (string, error) {
	if o.initErr != nil {
		return "", o.initErr
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  o.settings.Model,
		Prompt: ports.Instruction,
		Images: []api.ImageData{data},
		Stream: &stream,
		Options: map[string]any{
			"temperature": o.settings.temperature(),
			"num_predict": o.settings.maxTokens(),
		},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", o.wrap(err)
	}
	return sb.String(), nil
}

// ListModels returns the models present on the daemon
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	if o.initErr != nil {
		return nil, o.initErr
	}
	resp, err := o.client.List(ctx)
	if err != nil {
		return nil, o.wrap(err)
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

// EnsureModel pulls model unless the daemon already has it
func (o *Ollama) EnsureModel(ctx context.Context, model string) error {
	models, err := o.ListModels(ctx)
	if err != nil {
		return err
	}
	if hasModel(models, model) {
		return nil
	}

	stream := false
	var last string
	err = o.pullClient.Pull(ctx, &api.PullRequest{Model: model, Stream: &stream}, func(p api.ProgressResponse) error {
		last = p.Status
		return nil
	})
	if err != nil {
		return o.wrap(err)
	}
	if last != "success" {
		return &application.BackendError{Provider: o.Kind(), Message: "pull ended with status " + last}
	}
	return nil
}

// TestConnection checks the daemon answers and has the configured model
func (o *Ollama) TestConnection(ctx context.Context) error {
	models, err := withRetry(ctx, o.settings, ollamaMaxRetries, func() ([]string, error) {
		return o.ListModels(ctx)
	})
	if err != nil {
		return err
	}
	if !hasModel(models, o.settings.Model) {
		return &application.BackendError{
			Provider: o.Kind(),
			Status:   http.StatusNotFound,
			Message:  fmt.Sprintf("model %q not found; run: snapname models pull %s", o.settings.Model, o.settings.Model),
		}
	}
	return nil
}

// hasModel matches names with or without the implicit :latest tag
func hasModel(models []string, model string) bool {
	for _, m := range models {
		if m == model || strings.TrimSuffix(m, ":latest") == model {
			return true
		}
	}
	return false
}

func (o *Ollama) wrap(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return statusError(o.Kind(), statusErr.StatusCode, msg, err)
	}
	return transportError(o.Kind(), err)
}
