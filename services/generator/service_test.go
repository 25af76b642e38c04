package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/catalog-assistant/services/providers"
	"go.uber.org/zap"
)

// stubChatClient returns a canned completion or error
type stubChatClient struct {
	reply    string
	err      error
	received []providers.Message
}

func (s *stubChatClient) Complete(_ context.Context, messages []providers.Message) (string, error) {
	s.received = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

const validOutput = `[{
	"item_id": "SKU1",
	"item_name": "Oak Chair",
	"item_description": "A sturdy oak dining chair.",
	"brand_name": "Northwood",
	"manufacturer_address": {"street": "12 Mill Road", "city": "Portland", "state": "OR", "postal_code": "97201", "country": "USA"},
	"prices": {"full_price": 120, "sale_price": 90},
	"categories": ["chairs"],
	"user_reviews": [{"review_date": "2024-01-01", "rating": 5, "comment": "sturdy"}],
	"notes": "limited edition"
}]`

func TestGenerate(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid model output yields records", func(t *testing.T) {
		chat := &stubChatClient{reply: validOutput}
		svc := NewService(chat, logger)

		records := svc.Generate(context.Background(), 1)
		require.Len(t, records, 1)
		assert.Equal(t, "SKU1", records[0].ItemID)
	})

	t.Run("prompt carries the format instructions", func(t *testing.T) {
		chat := &stubChatClient{reply: validOutput}
		svc := NewService(chat, logger)

		svc.Generate(context.Background(), 3)
		require.Len(t, chat.received, 2)
		assert.Equal(t, providers.RoleSystem, chat.received[0].Role)
		assert.Contains(t, chat.received[1].Content, "item_id")
		assert.Contains(t, chat.received[1].Content, "manufacturer_address")
		assert.Contains(t, chat.received[1].Content, "user_reviews")
	})

	t.Run("generation failure degrades to empty set", func(t *testing.T) {
		chat := &stubChatClient{err: errors.New("model unavailable")}
		svc := NewService(chat, logger)

		records := svc.Generate(context.Background(), 5)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("malformed output degrades to empty set", func(t *testing.T) {
		chat := &stubChatClient{reply: "sorry, I cannot do that"}
		svc := NewService(chat, logger)

		records := svc.Generate(context.Background(), 5)
		assert.Empty(t, records)
	})

	t.Run("non-positive count is a no-op", func(t *testing.T) {
		chat := &stubChatClient{reply: validOutput}
		svc := NewService(chat, logger)

		records := svc.Generate(context.Background(), 0)
		assert.Empty(t, records)
		assert.Nil(t, chat.received)
	})
}

func TestFormatInstructions(t *testing.T) {
	instructions := FormatInstructions()

	// The contract is derived from the schema, so every field name must appear
	for _, field := range []string{
		"item_id", "item_name", "item_description", "brand_name",
		"manufacturer_address", "postal_code", "country",
		"full_price", "sale_price", "categories",
		"user_reviews", "review_date", "rating", "comment", "notes",
	} {
		assert.Contains(t, instructions, field)
	}
}
