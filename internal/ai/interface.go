package ai

import (
	"context"
	"fmt"

	"github.com/codeguardian-ai/codeguardian/internal/config"
)

// Provider abstracts calls to a language model.
// To add a new provider:
//  1. Create a file in internal/ai/ (e.g. mymodel.go)
//  2. Implement Provider
//  3. Register in New()
type Provider interface {
	// Name returns the provider identifier (e.g. "bedrock", "anthropic").
	Name() string

	// IsAvailable verifies the provider is reachable and configured.
	IsAvailable(ctx context.Context) bool

	// Analyze sends one analysis prompt and returns the raw model text.
	// Callers own prompt construction and response parsing.
	Analyze(ctx context.Context, prompt string) (string, error)
}

// New returns the configured Provider. With no usable configuration it
// returns a NoopProvider so callers can check IsAvailable() and degrade
// instead of crashing.
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "bedrock", "":
		return NewBedrock(cfg)
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return &NoopProvider{}, nil
		}
		return NewAnthropic(cfg), nil
	case "none":
		return &NoopProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
