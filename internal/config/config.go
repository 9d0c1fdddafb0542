package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"snapname/internal/application"
	"snapname/internal/domain"
)

const (
	DefaultWatchDir = "~/Desktop"
	EnvPrefix       = "SNAPNAME"
)

// ProviderConfig holds the connection parameters of one backend
type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Providers groups the per-backend settings
type Providers struct {
	Gemini   ProviderConfig `mapstructure:"gemini"`
	LMStudio ProviderConfig `mapstructure:"lmstudio"`
	Ollama   ProviderConfig `mapstructure:"ollama"`
}

type ClipboardConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	HelperPath string        `mapstructure:"helper_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RetryConfig overrides backend retry defaults. A nil MaxRetries keeps
// each backend's own count; 0 disables retries.
type RetryConfig struct {
	MaxRetries *int          `mapstructure:"max_retries"`
	Delay      time.Duration `mapstructure:"delay"`
}

type WatchConfig struct {
	Debounce     time.Duration `mapstructure:"debounce"`
	StableWindow time.Duration `mapstructure:"stable_window"`
	Recursive    bool          `mapstructure:"recursive"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// Snapshot is an immutable view of the configuration for one pipeline run.
// Reloading produces a new Snapshot; nothing mutates an existing one.
type Snapshot struct {
	WatchDir  string          `mapstructure:"watch_dir"`
	Provider  string          `mapstructure:"provider"`
	Providers Providers       `mapstructure:"providers"`
	Clipboard ClipboardConfig `mapstructure:"clipboard"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Watch     WatchConfig     `mapstructure:"watch"`
	History   HistoryConfig   `mapstructure:"history"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	LogLevel  string          `mapstructure:"log_level"`
	LogFormat string          `mapstructure:"log_format"`
}

// DefaultSnapshot returns the built-in defaults
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		WatchDir: DefaultWatchDir,
		Provider: string(domain.ProviderOllama),
		Providers: Providers{
			Gemini: ProviderConfig{
				BaseURL:     "https://generativelanguage.googleapis.com",
				Model:       "gemini-2.0-flash",
				MaxTokens:   50,
				Temperature: 0.3,
				Timeout:     30 * time.Second,
			},
			LMStudio: ProviderConfig{
				BaseURL:     "http://localhost:1234/v1",
				MaxTokens:   50,
				Temperature: 0.3,
				Timeout:     60 * time.Second,
			},
			Ollama: ProviderConfig{
				BaseURL:     "http://localhost:11434",
				Model:       "llava",
				MaxTokens:   50,
				Temperature: 0.3,
				Timeout:     60 * time.Second,
			},
		},
		Clipboard: ClipboardConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
		},
		Retry: RetryConfig{
			Delay: time.Second,
		},
		Watch: WatchConfig{
			Debounce:     500 * time.Millisecond,
			StableWindow: 300 * time.Millisecond,
			Recursive:    true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.snapname/history.db",
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Kind returns the selected provider kind
func (s *Snapshot) Kind() (domain.ProviderKind, error) {
	return domain.ParseProviderKind(s.Provider)
}

// ProviderConfig returns the settings of the given backend
func (s *Snapshot) ProviderConfig(kind domain.ProviderKind) ProviderConfig {
	switch kind {
	case domain.ProviderGemini:
		return s.Providers.Gemini
	case domain.ProviderLMStudio:
		return s.Providers.LMStudio
	default:
		return s.Providers.Ollama
	}
}

// Validate checks the snapshot. The watch directory is only required for
// continuous watching.
func (s *Snapshot) Validate(requireWatchDir bool) error {
	kind, err := s.Kind()
	if err != nil {
		return &application.ConfigError{Field: "provider", Message: err.Error()}
	}

	if requireWatchDir && strings.TrimSpace(s.WatchDir) == "" {
		return &application.ConfigError{Field: "watch_dir", Message: "watch directory is required"}
	}

	pc := s.ProviderConfig(kind)
	field := "providers." + kind.String()
	if strings.TrimSpace(pc.BaseURL) == "" {
		return &application.ConfigError{Field: field + ".base_url", Message: "base URL is required"}
	}
	// LM Studio answers with whatever model is loaded when none is named
	if kind != domain.ProviderLMStudio && strings.TrimSpace(pc.Model) == "" {
		return &application.ConfigError{Field: field + ".model", Message: "model is required"}
	}
	if kind == domain.ProviderGemini && strings.TrimSpace(pc.APIKey) == "" {
		return &application.ConfigError{Field: field + ".api_key", Message: "API key is required (or set GEMINI_API_KEY)"}
	}
	if pc.Timeout <= 0 {
		return &application.ConfigError{Field: field + ".timeout", Message: "timeout must be positive"}
	}
	if s.Clipboard.Enabled && s.Clipboard.Timeout <= 0 {
		return &application.ConfigError{Field: "clipboard.timeout", Message: "timeout must be positive"}
	}
	if s.Retry.MaxRetries != nil && *s.Retry.MaxRetries < 0 {
		return &application.ConfigError{Field: "retry.max_retries", Message: "must be >= 0"}
	}
	return nil
}

// Path returns the config file path from SNAPNAME_CONFIG,
// falling back to ~/.config/snapname/config.yaml.
func Path() string {
	if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
		return ExpandPath(env)
	}
	return ExpandPath("~/.config/snapname/config.yaml")
}

// Load builds a Snapshot from defaults, the YAML file at path (if it exists)
// and SNAPNAME_* environment variables. An empty path means Path().
func Load(path string) (*Snapshot, error) {
	if path == "" {
		path = Path()
	}

	v := viper.New()
	setDefaults(v, DefaultSnapshot())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	snap := &Snapshot{}
	if err := v.Unmarshal(snap); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if snap.Providers.Gemini.APIKey == "" {
		snap.Providers.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	snap.WatchDir = ExpandPath(snap.WatchDir)
	snap.History.Path = ExpandPath(snap.History.Path)
	snap.Clipboard.HelperPath = ExpandPath(snap.Clipboard.HelperPath)

	return snap, nil
}

func setDefaults(v *viper.Viper, d *Snapshot) {
	v.SetDefault("watch_dir", d.WatchDir)
	v.SetDefault("provider", d.Provider)
	for name, pc := range map[string]ProviderConfig{
		"gemini":   d.Providers.Gemini,
		"lmstudio": d.Providers.LMStudio,
		"ollama":   d.Providers.Ollama,
	} {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"base_url", pc.BaseURL)
		v.SetDefault(prefix+"model", pc.Model)
		v.SetDefault(prefix+"api_key", pc.APIKey)
		v.SetDefault(prefix+"max_tokens", pc.MaxTokens)
		v.SetDefault(prefix+"temperature", pc.Temperature)
		v.SetDefault(prefix+"timeout", pc.Timeout)
	}
	v.SetDefault("clipboard.enabled", d.Clipboard.Enabled)
	v.SetDefault("clipboard.helper_path", d.Clipboard.HelperPath)
	v.SetDefault("clipboard.timeout", d.Clipboard.Timeout)
	// no default so an unset value stays nil
	_ = v.BindEnv("retry.max_retries")
	v.SetDefault("retry.delay", d.Retry.Delay)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.stable_window", d.Watch.StableWindow)
	v.SetDefault("watch.recursive", d.Watch.Recursive)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}
