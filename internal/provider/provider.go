package provider

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	ErrRateLimit       = errors.New("rate limit exceeded")
	ErrTimeout         = errors.New("request timed out")
	ErrInvalidResponse = errors.New("invalid response from provider")
)

// Completer generates text completions from a prompt.
type Completer interface {
	// Complete returns a text completion for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options holds sampling parameters shared by all completers.
// The mining prompts want low-variance output, so temperature defaults
// low and the token budget is sized for structured JSON responses.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

const (
	defaultMaxTokens   = 4000
	defaultTemperature = 0.3
)

func (o *Options) applyDefaults(defaultModel string) {
	if o.Model == "" {
		o.Model = defaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}
}

// New creates a Completer for the given provider type.
// Supported types: "anthropic", "openai".
func New(providerType, apiKey string, opts Options) (Completer, error) {
	switch providerType {
	case "anthropic":
		return NewAnthropicCompleter(apiKey, opts), nil
	case "openai":
		return NewOpenAICompleter(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %q", providerType)
	}
}
