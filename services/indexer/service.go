// Package indexer turns catalog records into query-ready vectors: it compiles
// each record's summary, embeds it, and upserts the result into the corpus.
package indexer

import (
	"context"

	"github.com/upb/catalog-assistant/internal/summary"
	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/services"
	"github.com/upb/catalog-assistant/services/providers"
	"go.uber.org/zap"
)

// Service embeds and indexes catalog records
type Service struct {
	embedder providers.EmbeddingClient
	corpus   repositories.CorpusRepository
	logger   *zap.Logger
}

// NewService creates a new indexer service
func NewService(embedder providers.EmbeddingClient, corpus repositories.CorpusRepository, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		corpus:   corpus,
		logger:   logger,
	}
}

// Reset clears the corpus and recreates the search index from scratch.
// Must not run concurrently with chat traffic against the same index.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.corpus.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.corpus.RecreateIndex(ctx); err != nil {
		return err
	}
	s.logger.Info("corpus reset complete")
	return nil
}

// IndexRecord compiles, embeds, and upserts a single record
func (s *Service) IndexRecord(ctx context.Context, rec models.CatalogRecord) error {
	text := summary.Compile(rec)

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return services.WrapExternal("failed to embed record summary", err)
	}

	return s.corpus.Upsert(ctx, &models.IndexedDocument{
		ItemID:    rec.ItemID,
		Summary:   text,
		Embedding: vec,
		Record:    rec,
	})
}

// IndexRecords indexes a batch of records one at a time. A failure on one
// record does not corrupt already-written records and, unless failFast is
// set, does not block the rest of the batch. Returns the number indexed and
// the last error encountered.
func (s *Service) IndexRecords(ctx context.Context, records []models.CatalogRecord, failFast bool) (int, error) {
	indexed := 0
	var lastErr error

	for _, rec := range records {
		if err := s.IndexRecord(ctx, rec); err != nil {
			s.logger.Warn("failed to index record",
				zap.String("item_id", rec.ItemID),
				zap.Error(err))
			lastErr = err
			if failFast {
				return indexed, err
			}
			continue
		}
		indexed++
	}

	s.logger.Info("batch indexed",
		zap.Int("indexed", indexed),
		zap.Int("failed", len(records)-indexed))
	return indexed, lastErr
}
