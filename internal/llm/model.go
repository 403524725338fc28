// Package llm wraps langchaingo model providers behind a single
// pre-configured evaluation client with typed error classification.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"forumjudge/internal/config"
)

// TokenUsage reports prompt and completion token counts for one call,
// when the provider exposes them.
type TokenUsage struct {
	Input  int
	Output int
}

// Model is a reusable, pre-configured model-service client. It is
// constructed once at startup and passed into the orchestrator.
type Model struct {
	llm       llms.Model
	modelName string
	timeout   time.Duration
}

// NewModel creates the model client for the configured provider.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion))
		if awsErr != nil {
			return nil, fmt.Errorf("load aws config: %w", awsErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		timeout:   cfg.LLMTimeout(),
	}, nil
}

// Name returns the model identifier stored with each evaluation.
func (m *Model) Name() string {
	return m.modelName
}

// ChatJSON sends a system prompt and a user prompt in one request with
// JSON output mode, under the per-call timeout. Errors come back
// classified into the package's sentinel taxonomy.
func (m *Model) ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, *TokenUsage, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return "", nil, Classify(fmt.Errorf("generate content: %w", err))
	}
	if len(response.Choices) == 0 {
		return "", nil, fmt.Errorf("%w: no response choices", ErrInvalidResponse)
	}

	choice := response.Choices[0]
	usage := usageFromInfo(choice.GenerationInfo)
	slog.Debug("model call complete",
		"model", m.modelName,
		"duration_ms", time.Since(start).Milliseconds(),
		"content_len", len(choice.Content))
	return choice.Content, usage, nil
}

// usageFromInfo extracts token counts from provider metadata. Key names
// vary per provider; unknown shapes yield nil.
func usageFromInfo(info map[string]any) *TokenUsage {
	if info == nil {
		return nil
	}
	in := intFromInfo(info, "PromptTokens", "InputTokens", "input_tokens")
	out := intFromInfo(info, "CompletionTokens", "OutputTokens", "output_tokens")
	if in == 0 && out == 0 {
		return nil
	}
	return &TokenUsage{Input: in, Output: out}
}

func intFromInfo(info map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := info[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
