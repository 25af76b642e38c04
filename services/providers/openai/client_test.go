package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/catalog-assistant/services/providers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		APIKey:             "test-key",
		BaseURL:            srv.URL,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 3,
		ChatModel:          "gpt-4o-mini",
		Temperature:        0.7,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("requires an api key", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.Error(t, err)
	})

	t.Run("valid configuration", func(t *testing.T) {
		client, err := NewClient(Config{APIKey: "key", EmbeddingModel: "m", EmbeddingDimension: 8})
		require.NoError(t, err)
		assert.Equal(t, "openai", client.Name())
		assert.Equal(t, 8, client.Dimension())
		assert.Equal(t, "m", client.Model())
	})
}

func TestClientEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the embedding vector", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "embeddings")
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
				},
			})
		})

		vec, err := client.Embed(ctx, "oak chair summary")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("rejects empty input without calling the api", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("unexpected api call")
		})

		_, err := client.Embed(ctx, "")
		var provErr *providers.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "EMPTY_INPUT", provErr.Code)
		assert.False(t, provErr.Retryable)
	})

	t.Run("rejects a vector of unexpected dimension", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"embedding": []float32{0.1, 0.2}, "index": 0},
				},
			})
		})

		_, err := client.Embed(ctx, "text")
		var provErr *providers.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "DIMENSION_MISMATCH", provErr.Code)
	})

	t.Run("server errors are retryable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "server overloaded", "type": "server_error"}}`))
		})

		_, err := client.Embed(ctx, "text")
		var provErr *providers.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.True(t, provErr.Retryable)
	})
}

func TestClientComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the first choice", func(t *testing.T) {
		var gotReq openai.ChatCompletionRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "chat/completions")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"role": "assistant", "content": "We have oak chairs."}},
				},
			})
		})

		reply, err := client.Complete(ctx, []providers.Message{
			{Role: providers.RoleSystem, Content: "You are a catalog assistant."},
			{Role: providers.RoleUser, Content: "Any oak chairs?"},
		})
		require.NoError(t, err)
		assert.Equal(t, "We have oak chairs.", reply)

		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, "system", gotReq.Messages[0].Role)
		assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	})

	t.Run("rejects an empty conversation", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("unexpected api call")
		})

		_, err := client.Complete(ctx, nil)
		var provErr *providers.ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, "EMPTY_INPUT", provErr.Code)
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}
