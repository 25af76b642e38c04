package providers

import (
	"context"
	"fmt"
)

// EmbeddingClient generates vector embeddings for text.
// Query and corpus vectors must come from the same model/version, otherwise
// similarity scores are meaningless; Model identifies that version.
type EmbeddingClient interface {
	// Embed converts a text into a fixed-length vector
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed vector dimension produced by the model
	Dimension() int

	// Model returns the embedding model identifier
	Model() string
}

// ChatClient invokes a generative language model
type ChatClient interface {
	// Complete generates a reply for the given conversation
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Message represents a single message in a conversation
type Message struct {
	// Role can be "system", "user", or "assistant"
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// Chat message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ProviderError represents an error from an external model provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Err:        err,
	}
}
