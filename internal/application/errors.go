package application

import (
	"errors"
	"fmt"
	"net/http"

	"snapname/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrMissingField       = errors.New("missing required field")
	ErrUnsupportedImage   = errors.New("unsupported image")
	ErrClipboardExhausted = errors.New("all clipboard strategies failed")
	ErrMockPlan           = errors.New("plan was built with mock names and cannot be applied")
	ErrNoFreeName         = errors.New("no free file name")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigError represents an invalid configuration snapshot
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	if e.Field == "provider" {
		return target == ErrUnknownProvider
	}
	return target == ErrMissingField
}

// BackendError represents a failed call to a vision backend
type BackendError struct {
	Provider domain.ProviderKind
	Status   int // HTTP status, 0 when the request never completed
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s backend (%d): %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s backend: %s", e.Provider, msg)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Permanent reports whether retrying cannot help. Every 4xx answer is
// permanent, 408 and 429 included; only 5xx and transport failures retry.
func (e *BackendError) Permanent() bool {
	return e.Status >= http.StatusBadRequest && e.Status < http.StatusInternalServerError
}

// IsPermanent reports whether err is a permanent backend or configuration error
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return true
	}
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Permanent()
	}
	return false
}
