package domain

import (
	"fmt"
	"strings"
)

// ProviderKind identifies one of the interchangeable vision backends
type ProviderKind string

const (
	ProviderGemini   ProviderKind = "gemini"   // remote HTTPS inference service
	ProviderLMStudio ProviderKind = "lmstudio" // local OpenAI-compatible chat server
	ProviderOllama   ProviderKind = "ollama"   // local daemon with model management
)

// ProviderKinds lists every known provider kind
var ProviderKinds = []ProviderKind{ProviderGemini, ProviderLMStudio, ProviderOllama}

func (k ProviderKind) String() string {
	return string(k)
}

// IsLocal reports whether the backend runs on the user's machine
func (k ProviderKind) IsLocal() bool {
	return k == ProviderLMStudio || k == ProviderOllama
}

// ParseProviderKind maps a configuration string to a ProviderKind.
// Unknown values are an error so they surface before any processing starts.
func ParseProviderKind(s string) (ProviderKind, error) {
	k := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ProviderKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (expected gemini, lmstudio or ollama)", s)
}
