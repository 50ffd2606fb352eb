// Package llm wraps a pair of Gemini chat models behind the engine's
// IntentExtractor and TextGenerator contracts: a small low-temperature model
// for intent extraction and a larger one for response generation.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/deep-ag/copilot/internal/agent/model"
	"github.com/deep-ag/copilot/internal/agent/parsers"
	"github.com/deep-ag/copilot/internal/agent/prompts"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// Config holds everything needed to create both chat models.
type Config struct {
	APIKey         string
	BaseURL        string
	IntentConfig   model.IntentModelConfig
	ResponseConfig model.ResponseModelConfig
}

// Client holds both chat models plus the rendered intent system prompt.
type Client struct {
	intent            *gemini.ChatModel
	response          *gemini.ChatModel
	intentModelName   string
	responseModelName string
	intentSystem      string
}

// New creates the shared genai client and both chat models.
func New(ctx context.Context, cfg Config) (*Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	intentModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.IntentConfig.Model,
		Temperature: &cfg.IntentConfig.Temperature,
		MaxTokens:   &cfg.IntentConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating intent model")
		return nil, fmt.Errorf("error creating intent model: %w", err)
	}

	responseModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.ResponseConfig.Model,
		Temperature: &cfg.ResponseConfig.Temperature,
		MaxTokens:   &cfg.ResponseConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	intentSystem, err := prompts.RenderIntentSystem(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{
		intent:            intentModel,
		response:          responseModel,
		intentModelName:   cfg.IntentConfig.Model,
		responseModelName: cfg.ResponseConfig.Model,
		intentSystem:      intentSystem,
	}, nil
}

// ExtractIntent runs the intent model over the query. It never fails: any
// provider or parse problem yields the safe default intent.
func (c *Client) ExtractIntent(ctx context.Context, query string) model.Intent {
	out, err := c.intent.Generate(ctx, []*schema.Message{
		schema.SystemMessage(c.intentSystem),
		schema.UserMessage("Query: " + query),
	})
	if err != nil {
		logx.Warn().Err(err).Str("model", c.intentModelName).
			Msg("intent extraction failed, using default intent")
		return model.DefaultIntent()
	}
	c.logUsage("intent", c.intentModelName, out)
	return parsers.ParseIntent(out.Content)
}

// Generate runs the response model with the given system prompt and user
// prompt and returns the raw text.
func (c *Client) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	out, err := c.response.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	c.logUsage("response", c.responseModelName, out)
	return out.Content, nil
}

func (c *Client) logUsage(stage, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	logx.Debug().
		Str("stage", stage).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Msg("LLM usage")
}

var (
	_ model.IntentExtractor = (*Client)(nil)
	_ model.TextGenerator   = (*Client)(nil)
)
