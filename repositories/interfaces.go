package repositories

import (
	"context"

	"github.com/upb/catalog-assistant/models"
)

// CorpusRepository handles the searchable document collection and its vector index
type CorpusRepository interface {
	// RecreateIndex drops and recreates the search index with the configured
	// similarity metric and dimension. Destructive and idempotent; must run
	// before any writes in a fresh setup, never concurrently with reads.
	RecreateIndex(ctx context.Context) error

	// DeleteAll removes every indexed document (full corpus reset)
	DeleteAll(ctx context.Context) error

	// Upsert writes a document keyed by its record's item ID.
	// A vector whose dimension mismatches the index is rejected, not stored.
	Upsert(ctx context.Context, doc *models.IndexedDocument) error

	// Search returns the top-k documents nearest the query vector,
	// ranked by the configured similarity metric
	Search(ctx context.Context, vector []float32, k int) ([]*models.IndexedDocument, error)

	// Count returns the number of indexed documents
	Count(ctx context.Context) (int, error)
}

// ConversationRepository handles durable, thread-keyed conversation history
type ConversationRepository interface {
	// Append stores a single turn at the end of its thread
	Append(ctx context.Context, turn *models.Turn) error

	// AppendExchange stores a user turn and the assistant reply atomically.
	// Either both turns are persisted or neither is.
	AppendExchange(ctx context.Context, userTurn, assistantTurn *models.Turn) error

	// Load returns the ordered turn sequence for a thread.
	// An unknown thread ID yields an empty sequence, not an error.
	Load(ctx context.Context, threadID string) ([]*models.Turn, error)
}
