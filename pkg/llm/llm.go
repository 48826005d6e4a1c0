package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	geminimodel "github.com/cloudwego/eino-ext/components/model/gemini"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Builder constructs a tool-calling chat model from its config.
type Builder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var (
	_ Builder = (*GeminiConfig)(nil)
	_ Builder = (*OpenAIConfig)(nil)
)

// GeminiConfig builds a Gemini chat model via the genai SDK.
type GeminiConfig struct {
	APIKey      string  `envconfig:"API_KEY" split_words:"true"`
	Model       string  `envconfig:"MODEL" split_words:"true" default:"gemini-2.0-flash"`
	MaxTokens   *int    `envconfig:"MAX_TOKENS" split_words:"true" default:"2000"`
	Temperature float32 `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	BaseURL     string  `envconfig:"BASE_URL" split_words:"true"`
}

func (c *GeminiConfig) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("llm: gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(c.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if c.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}

	m, err := geminimodel.NewChatModel(ctx, &geminimodel.Config{
		Client:      client,
		Model:       strings.TrimSpace(c.Model),
		Temperature: &c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini chat model: %w", err)
	}

	return m, nil
}

// OpenAIConfig builds a chat model against any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true"`
	MaxTokens   *int          `envconfig:"MAX_TOKENS" split_words:"true" default:"2000"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

func (c *OpenAIConfig) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("llm: openai api key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return nil, fmt.Errorf("llm: openai model is required")
	}

	m, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxTokens,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create openai chat model: %w", err)
	}

	return m, nil
}

// Config selects which provider to build from. Provider is "gemini" or
// "openai"; envconfig nesting keeps both provider blocks under one prefix.
type Config struct {
	Provider string       `envconfig:"PROVIDER" split_words:"true" default:"gemini"`
	Gemini   GeminiConfig `envconfig:"GEMINI"`
	OpenAI   OpenAIConfig `envconfig:"OPENAI"`
}

func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case "", "gemini":
		return c.Gemini.New(ctx)
	case "openai":
		return c.OpenAI.New(ctx)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", c.Provider)
	}
}
