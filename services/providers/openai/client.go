package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/upb/catalog-assistant/services/providers"
)

// Config holds OpenAI client configuration
type Config struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string
	Temperature        float64
	Timeout            time.Duration
}

// Client implements providers.EmbeddingClient and providers.ChatClient
// against the OpenAI API.
type Client struct {
	api *openai.Client
	cfg Config
}

// NewClient creates a new OpenAI client
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}, nil
}

// Name returns the provider name
func (c *Client) Name() string {
	return "openai"
}

// Embed converts a text into a fixed-length vector
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, providers.NewProviderError(c.Name(), "EMPTY_INPUT", "cannot embed empty text", 0, false, nil)
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "EMBEDDING_ERROR", "embedding request failed", 0, isRetryable(err), err)
	}
	if len(resp.Data) == 0 {
		return nil, providers.NewProviderError(c.Name(), "EMPTY_RESPONSE", "no embedding data returned", 0, false, nil)
	}

	vec := resp.Data[0].Embedding
	if len(vec) != c.cfg.EmbeddingDimension {
		return nil, providers.NewProviderError(c.Name(), "DIMENSION_MISMATCH",
			"embedding dimension does not match configuration", 0, false, nil)
	}

	return vec, nil
}

// Dimension returns the fixed vector dimension produced by the model
func (c *Client) Dimension() int {
	return c.cfg.EmbeddingDimension
}

// Model returns the embedding model identifier
func (c *Client) Model() string {
	return c.cfg.EmbeddingModel
}

// Complete generates a reply for the given conversation
func (c *Client) Complete(ctx context.Context, messages []providers.Message) (string, error) {
	if len(messages) == 0 {
		return "", providers.NewProviderError(c.Name(), "EMPTY_INPUT", "no messages to complete", 0, false, nil)
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Messages:    chatMessages,
		Temperature: float32(c.cfg.Temperature),
	})
	if err != nil {
		return "", providers.NewProviderError(c.Name(), "COMPLETION_ERROR", "chat completion failed", 0, isRetryable(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", providers.NewProviderError(c.Name(), "EMPTY_RESPONSE", "no completion choices returned", 0, false, nil)
	}

	return resp.Choices[0].Message.Content, nil
}

// isRetryable reports whether an API error is worth retrying
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
