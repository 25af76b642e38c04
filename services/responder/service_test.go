package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/services"
	"github.com/upb/catalog-assistant/services/providers"
	"go.uber.org/zap"
)

// stubEmbedder returns a fixed vector for any input
type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEmbedder) Dimension() int { return len(s.vec) }
func (s *stubEmbedder) Model() string  { return "stub" }

// echoChat records the prompt it received and echoes it back as the reply,
// so tests can inspect the exact grounding context the service composed
type echoChat struct {
	received []providers.Message
	err      error
}

func (e *echoChat) Complete(ctx context.Context, messages []providers.Message) (string, error) {
	e.received = messages
	if e.err != nil {
		return "", e.err
	}
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// MockCorpusRepository is a mock implementation of repositories.CorpusRepository
type MockCorpusRepository struct {
	mock.Mock
}

func (m *MockCorpusRepository) RecreateIndex(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCorpusRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCorpusRepository) Upsert(ctx context.Context, doc *models.IndexedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockCorpusRepository) Search(ctx context.Context, vector []float32, k int) ([]*models.IndexedDocument, error) {
	args := m.Called(ctx, vector, k)
	if docs := args.Get(0); docs != nil {
		return docs.([]*models.IndexedDocument), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCorpusRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockConversationRepository is a mock implementation of repositories.ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Append(ctx context.Context, turn *models.Turn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

func (m *MockConversationRepository) AppendExchange(ctx context.Context, userTurn, assistantTurn *models.Turn) error {
	args := m.Called(ctx, userTurn, assistantTurn)
	return args.Error(0)
}

func (m *MockConversationRepository) Load(ctx context.Context, threadID string) ([]*models.Turn, error) {
	args := m.Called(ctx, threadID)
	if turns := args.Get(0); turns != nil {
		return turns.([]*models.Turn), args.Error(1)
	}
	return nil, args.Error(1)
}

func oakChairDoc() *models.IndexedDocument {
	return &models.IndexedDocument{
		ItemID:  "SKU-OAK-1",
		Summary: "Made in USA. Categories: chairs,oak. Oak Chair: A sturdy oak dining chair. by Northwood. Price: $120, on sale for $90.",
		Score:   0.92,
	}
}

func TestRespond(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("reply is grounded in retrieved summaries", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1, 0.2}}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{TopK: 3}, logger)

		conversations.On("Load", ctx, "T1").Return([]*models.Turn{}, nil)
		corpus.On("Search", ctx, []float32{0.1, 0.2}, 3).
			Return([]*models.IndexedDocument{oakChairDoc()}, nil)
		conversations.On("AppendExchange", ctx, mock.Anything, mock.Anything).Return(nil)

		reply, err := svc.Respond(ctx, "T1", "Do you have any oak chairs?")
		require.NoError(t, err)

		// the echoed reply carries the composed prompt, so the grounding
		// context must show up verbatim
		assert.Contains(t, reply, "Oak Chair")
		assert.Contains(t, reply, "Made in USA")
		assert.Contains(t, reply, "Do you have any oak chairs?")

		require.NotEmpty(t, chat.received)
		assert.Equal(t, providers.RoleSystem, chat.received[0].Role)
		assert.Contains(t, chat.received[0].Content, "Catalog context:")
	})

	t.Run("history precedes the new message in the prompt", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1}}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{}, logger)

		history := []*models.Turn{
			models.NewTurn("T1", models.TurnRoleUser, "Hi"),
			models.NewTurn("T1", models.TurnRoleAssistant, "Hello! How can I help?"),
		}
		conversations.On("Load", ctx, "T1").Return(history, nil)
		corpus.On("Search", ctx, mock.Anything, 5).Return([]*models.IndexedDocument{}, nil)
		conversations.On("AppendExchange", ctx, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Respond(ctx, "T1", "Show me tables")
		require.NoError(t, err)

		require.Len(t, chat.received, 4)
		assert.Equal(t, providers.RoleSystem, chat.received[0].Role)
		assert.Equal(t, "Hi", chat.received[1].Content)
		assert.Equal(t, "Hello! How can I help?", chat.received[2].Content)
		assert.Equal(t, "Show me tables", chat.received[3].Content)
	})

	t.Run("empty message is rejected before any work", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1}}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{}, logger)

		_, err := svc.Respond(ctx, "T1", "   ")
		assert.ErrorIs(t, err, services.ErrEmptyMessage)
		conversations.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("generation failure leaves the thread untouched", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1}}
		chat := &echoChat{err: errors.New("model unavailable")}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{}, logger)

		conversations.On("Load", ctx, "T1").Return([]*models.Turn{}, nil)
		corpus.On("Search", ctx, mock.Anything, 5).Return([]*models.IndexedDocument{}, nil)

		_, err := svc.Respond(ctx, "T1", "anything")
		require.Error(t, err)
		assert.True(t, services.IsExternalError(err))
		conversations.AssertNotCalled(t, "AppendExchange", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("embedding failure is an external error", func(t *testing.T) {
		embedder := &stubEmbedder{err: errors.New("quota exceeded")}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{}, logger)

		conversations.On("Load", ctx, "T1").Return([]*models.Turn{}, nil)

		_, err := svc.Respond(ctx, "T1", "anything")
		require.Error(t, err)
		assert.True(t, services.IsExternalError(err))
		corpus.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("documents below the score threshold are excluded from context", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1}}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{MinScore: 0.5}, logger)

		weak := &models.IndexedDocument{ItemID: "SKU-W", Summary: "Wobbly stool.", Score: 0.12}
		conversations.On("Load", ctx, "T1").Return([]*models.Turn{}, nil)
		corpus.On("Search", ctx, mock.Anything, 5).
			Return([]*models.IndexedDocument{oakChairDoc(), weak}, nil)
		conversations.On("AppendExchange", ctx, mock.Anything, mock.Anything).Return(nil)

		reply, err := svc.Respond(ctx, "T1", "chairs?")
		require.NoError(t, err)
		assert.Contains(t, reply, "Oak Chair")
		assert.NotContains(t, reply, "Wobbly stool")
	})

	t.Run("successful exchange appends both turns", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1}}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{}, logger)

		conversations.On("Load", ctx, "T1").Return([]*models.Turn{}, nil)
		corpus.On("Search", ctx, mock.Anything, 5).Return([]*models.IndexedDocument{}, nil)
		conversations.On("AppendExchange", ctx,
			mock.MatchedBy(func(turn *models.Turn) bool {
				return turn.Role == models.TurnRoleUser && turn.Content == "chairs?" && turn.ThreadID == "T1"
			}),
			mock.MatchedBy(func(turn *models.Turn) bool {
				return turn.Role == models.TurnRoleAssistant && turn.ThreadID == "T1"
			}),
		).Return(nil)

		_, err := svc.Respond(ctx, "T1", "chairs?")
		require.NoError(t, err)
		conversations.AssertExpectations(t)
	})
}

func TestHistory(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("unknown thread yields an empty sequence", func(t *testing.T) {
		embedder := &stubEmbedder{vec: []float32{0.1}}
		chat := &echoChat{}
		corpus := new(MockCorpusRepository)
		conversations := new(MockConversationRepository)
		svc := NewService(embedder, chat, corpus, conversations, Config{}, logger)

		conversations.On("Load", ctx, "no-such-thread").Return([]*models.Turn{}, nil)

		turns, err := svc.History(ctx, "no-such-thread")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}
