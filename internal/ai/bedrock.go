package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	appconfig "github.com/codeguardian-ai/codeguardian/internal/config"
)

const (
	bedrockDefaultModel  = "anthropic.claude-3-sonnet-20240229-v1:0"
	bedrockDefaultRegion = "us-east-1"
	anthropicAPIVersion  = "bedrock-2023-05-31"
)

// BedrockProvider implements Provider using Anthropic Claude models served
// through the AWS Bedrock runtime.
type BedrockProvider struct {
	client      *bedrockruntime.Client
	model       string
	maxTokens   int
	temperature float64
	debug       bool
}

// NewBedrock creates a BedrockProvider. Credentials come from the default AWS
// chain (env, shared config, instance role).
func NewBedrock(cfg appconfig.AIConfig) (*BedrockProvider, error) {
	region := cfg.Region
	if region == "" {
		region = bedrockDefaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = bedrockDefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.1
	}

	return &BedrockProvider{
		client:      bedrockruntime.NewFromConfig(awsCfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		debug:       isDebug(),
	}, nil
}

func (b *BedrockProvider) Name() string { return "bedrock" }

func (b *BedrockProvider) IsAvailable(_ context.Context) bool {
	return b.client != nil
}

type bedrockMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Temperature      float64          `json:"temperature"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (b *BedrockProvider) Analyze(ctx context.Context, prompt string) (string, error) {
	payload := bedrockRequest{
		AnthropicVersion: anthropicAPIVersion,
		MaxTokens:        b.maxTokens,
		Temperature:      b.temperature,
		Messages: []bedrockMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling Bedrock request: %w", err)
	}

	if b.debug {
		slog.Debug("Bedrock request", "model", b.model, "prompt_chars", len(prompt))
	}
	if isDebugPrompts() {
		slog.Debug("Bedrock prompt", "prompt", prompt)
	}

	contentType := "application/json"
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &b.model,
		ContentType: &contentType,
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoking Bedrock model %s: %w", b.model, err)
	}

	var resp bedrockResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parsing Bedrock response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("Bedrock returned no content")
	}
	return strings.TrimSpace(resp.Content[0].Text), nil
}
