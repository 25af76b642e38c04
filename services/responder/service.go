// Package responder implements the retrieval-augmented conversation workflow:
// load history, embed the message, search the corpus, compose a grounded
// prompt, generate, and append the exchange.
package responder

import (
	"context"
	"strings"

	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/services"
	"github.com/upb/catalog-assistant/services/providers"
	"go.uber.org/zap"
)

const systemPrompt = "You are a helpful shopping assistant for a furniture catalog. " +
	"Answer using only the catalog entries provided as context. " +
	"If the context does not cover the question, say so instead of guessing."

// Config holds retrieval tuning knobs
type Config struct {
	// TopK is the number of nearest documents retrieved per message
	TopK int

	// MinScore drops retrieved documents scoring below the threshold.
	// Zero keeps everything.
	MinScore float64
}

// Service answers user messages grounded in retrieved catalog documents
type Service struct {
	embedder      providers.EmbeddingClient
	chat          providers.ChatClient
	corpus        repositories.CorpusRepository
	conversations repositories.ConversationRepository
	cfg           Config
	logger        *zap.Logger
}

// NewService creates a new responder service
func NewService(
	embedder providers.EmbeddingClient,
	chat providers.ChatClient,
	corpus repositories.CorpusRepository,
	conversations repositories.ConversationRepository,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{
		embedder:      embedder,
		chat:          chat,
		corpus:        corpus,
		conversations: conversations,
		cfg:           cfg,
		logger:        logger,
	}
}

// Respond answers a user message within a thread. Conversation state is only
// mutated after a successful generation: a failed model call leaves the
// thread exactly as it was.
func (s *Service) Respond(ctx context.Context, threadID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", services.ErrEmptyMessage
	}

	history, err := s.conversations.Load(ctx, threadID)
	if err != nil {
		return "", err
	}

	queryVec, err := s.embedder.Embed(ctx, message)
	if err != nil {
		return "", services.WrapExternal("failed to embed message", err)
	}

	docs, err := s.corpus.Search(ctx, queryVec, s.cfg.TopK)
	if err != nil {
		return "", err
	}
	docs = s.filterByScore(docs)

	msgs := s.composePrompt(docs, history, message)

	reply, err := s.chat.Complete(ctx, msgs)
	if err != nil {
		return "", services.WrapExternal("failed to generate reply", err)
	}

	userTurn := models.NewTurn(threadID, models.TurnRoleUser, message)
	assistantTurn := models.NewTurn(threadID, models.TurnRoleAssistant, reply)
	if err := s.conversations.AppendExchange(ctx, userTurn, assistantTurn); err != nil {
		return "", err
	}

	s.logger.Info("reply generated",
		zap.String("thread_id", threadID),
		zap.Int("retrieved", len(docs)),
		zap.Int("history_turns", len(history)))
	return reply, nil
}

// History returns the persisted turn sequence for a thread
func (s *Service) History(ctx context.Context, threadID string) ([]*models.Turn, error) {
	return s.conversations.Load(ctx, threadID)
}

// filterByScore drops documents below the configured similarity threshold
func (s *Service) filterByScore(docs []*models.IndexedDocument) []*models.IndexedDocument {
	if s.cfg.MinScore == 0 {
		return docs
	}
	kept := docs[:0]
	for _, doc := range docs {
		if doc.Score >= s.cfg.MinScore {
			kept = append(kept, doc)
		}
	}
	return kept
}

// composePrompt combines the system instruction, retrieved summaries as
// grounding context, the thread history, and the new message
func (s *Service) composePrompt(docs []*models.IndexedDocument, history []*models.Turn, message string) []providers.Message {
	var system strings.Builder
	system.WriteString(systemPrompt)
	if len(docs) > 0 {
		system.WriteString("\n\nCatalog context:\n")
		for _, doc := range docs {
			system.WriteString("- ")
			system.WriteString(doc.Summary)
			system.WriteString("\n")
		}
	}

	msgs := make([]providers.Message, 0, len(history)+2)
	msgs = append(msgs, providers.Message{Role: providers.RoleSystem, Content: system.String()})
	for _, turn := range history {
		msgs = append(msgs, providers.Message{Role: string(turn.Role), Content: turn.Content})
	}
	msgs = append(msgs, providers.Message{Role: providers.RoleUser, Content: message})
	return msgs
}
