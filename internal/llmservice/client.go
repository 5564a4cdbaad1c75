package llmservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"ai-workspace/internal/config"
)

// NewClient builds a chat model client for any OpenAI-compatible endpoint
// (Groq, OpenRouter, a local server).
func NewClient(llmConfig *config.LLMConfig) (llms.Model, error) {
	log.Debug().
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Initializing chat model")
	return openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
}

// GenerateContent calls the chat model, offering tools only when provided.
func GenerateContent(ctx context.Context, model llms.Model, tools []llms.Tool, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	if len(tools) > 0 {
		return model.GenerateContent(ctx, messages, llms.WithTools(tools))
	}
	return model.GenerateContent(ctx, messages)
}
