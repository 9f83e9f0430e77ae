package ai

import (
	"context"
	"errors"
)

// errNoAI is returned by NoopProvider for all AI operations.
var errNoAI = errors.New("AI provider not configured — set ai.provider to bedrock or anthropic")

// NoopProvider is used when no AI provider is configured.
// IsAvailable always returns false; Analyze returns errNoAI. This lets the
// rest of the codebase check IsAvailable() and fail scans cleanly instead of
// crashing.
type NoopProvider struct{}

func (n *NoopProvider) Name() string                       { return "none" }
func (n *NoopProvider) IsAvailable(_ context.Context) bool { return false }

func (n *NoopProvider) Analyze(_ context.Context, _ string) (string, error) {
	return "", errNoAI
}
