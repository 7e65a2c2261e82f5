package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pthm-cable/biosynth/config"
)

const systemPrompt = "You are a Persian poet breeding words. " +
	"Given two Persian words or short phrases, reply with a single new hybrid " +
	"word or short phrase (at most four words) that blends their sound and meaning. " +
	"Reply with the hybrid only, in Persian script, without quotes or explanation."

// OpenAI is a Mutation Service backed by a chat completion model.
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAI creates an OpenAI-backed service. The API key comes from
// OPENAI_API_KEY, falling back to the configured key file.
func NewOpenAI(cfg config.OpenAIConfig) (*OpenAI, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" && cfg.APIKeyFile != "" {
		data, err := os.ReadFile(cfg.APIKeyFile)
		if err == nil {
			apiKey = strings.TrimSpace(string(data))
			slog.Info("openai_key_from_file", "path", cfg.APIKeyFile)
		}
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
		slog.Warn("openai_model_default", "model", model)
	}

	slog.Info("openai_mutation_service", "model", model)
	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Mutate implements Service.
func (o *OpenAI) Mutate(ctx context.Context, a, b string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: a + "\n" + b},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices: %w", ErrEmptyResult)
	}
	return clean(resp.Choices[0].Message.Content)
}
