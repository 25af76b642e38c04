package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/services"
	"go.uber.org/zap"
)

// IndexConfig identifies a search index version. An index is versioned by its
// similarity metric and dimension; both are fixed at creation time.
// Field names the vector column the index covers.
type IndexConfig struct {
	Name      string
	Metric    string
	Dimension int
	Field     string
}

// CorpusRepository implements repositories.CorpusRepository on PostgreSQL
// with the pgvector extension.
type CorpusRepository struct {
	db     *DB
	cfg    IndexConfig
	logger *zap.Logger
}

// NewCorpusRepository creates a new corpus repository
func NewCorpusRepository(db *DB, cfg IndexConfig, logger *zap.Logger) (repositories.CorpusRepository, error) {
	if _, _, err := metricOperators(cfg.Metric); err != nil {
		return nil, err
	}
	if cfg.Dimension <= 0 {
		return nil, newDimensionError().WithDetail("dimension", cfg.Dimension)
	}
	if cfg.Field == "" {
		cfg.Field = "embedding"
	}
	return &CorpusRepository{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// newDimensionError builds a fresh dimension-mismatch error. Sentinels are
// never annotated directly: WithDetail mutates the receiver, and details from
// one failure must not leak into errors built elsewhere.
func newDimensionError() *services.DomainError {
	return services.NewDomainError(services.ErrorTypeIndexState,
		"vector dimension does not match index", nil)
}

// metricOperators maps a similarity metric to its pgvector operator class and
// distance operator
func metricOperators(metric string) (opClass, distanceOp string, err error) {
	switch metric {
	case "cosine":
		return "vector_cosine_ops", "<=>", nil
	case "euclidean":
		return "vector_l2_ops", "<->", nil
	case "dotProduct":
		return "vector_ip_ops", "<#>", nil
	default:
		return "", "", services.NewDomainError(services.ErrorTypeIndexState,
			"unsupported similarity metric", nil).WithDetail("metric", metric)
	}
}

// scoreExpr returns the SQL expression converting distance to a
// higher-is-better similarity score for the configured metric
func (r *CorpusRepository) scoreExpr(distanceOp string) string {
	if r.cfg.Metric == "cosine" {
		return fmt.Sprintf("1 - (%s %s $1)", r.cfg.Field, distanceOp)
	}
	// l2 distance and negative inner product both rank ascending
	return fmt.Sprintf("-(%s %s $1)", r.cfg.Field, distanceOp)
}

// RecreateIndex drops and recreates the ANN index under the configured name.
// Drop-then-create guarantees the metric/dimension invariant; a failed create
// leaves no half-created index behind.
func (r *CorpusRepository) RecreateIndex(ctx context.Context) error {
	opClass, _, err := metricOperators(r.cfg.Metric)
	if err != nil {
		return err
	}

	drop := fmt.Sprintf("DROP INDEX IF EXISTS %s", r.cfg.Name)
	if _, err := r.db.ExecContext(ctx, drop); err != nil {
		return services.WrapError(services.ErrorTypeIndexState, "failed to drop search index", err)
	}

	create := fmt.Sprintf(
		"CREATE INDEX %s ON catalog_documents USING hnsw (%s %s)",
		r.cfg.Name, r.cfg.Field, opClass,
	)
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		// Recover to a clean state rather than leaving a partial index
		if _, dropErr := r.db.ExecContext(ctx, drop); dropErr != nil {
			r.logger.Error("failed to drop index after create failure",
				zap.String("index", r.cfg.Name), zap.Error(dropErr))
		}
		return services.WrapError(services.ErrorTypeIndexState, "failed to create search index", err)
	}

	r.logger.Info("search index recreated",
		zap.String("index", r.cfg.Name),
		zap.String("metric", r.cfg.Metric),
		zap.Int("dimension", r.cfg.Dimension))
	return nil
}

// DeleteAll removes every indexed document
func (r *CorpusRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM catalog_documents"); err != nil {
		return services.WrapStorage("failed to delete corpus documents", err)
	}
	r.logger.Info("corpus cleared")
	return nil
}

// Upsert writes a document keyed by its item ID
func (r *CorpusRepository) Upsert(ctx context.Context, doc *models.IndexedDocument) error {
	if len(doc.Embedding) != r.cfg.Dimension {
		return newDimensionError().
			WithDetail("item_id", doc.ItemID).
			WithDetail("got", len(doc.Embedding)).
			WithDetail("want", r.cfg.Dimension)
	}

	record, err := json.Marshal(doc.Record)
	if err != nil {
		return services.WrapInternal("failed to marshal catalog record", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO catalog_documents (item_id, summary, %[1]s, record)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE
		SET summary = EXCLUDED.summary,
		    %[1]s = EXCLUDED.%[1]s,
		    record = EXCLUDED.record,
		    updated_at = CURRENT_TIMESTAMP
	`, r.cfg.Field)

	_, err = r.db.ExecContext(ctx, query,
		doc.ItemID,
		doc.Summary,
		pgvector.NewVector(doc.Embedding),
		record,
	)
	if err != nil {
		return services.WrapStorage("failed to upsert document", err)
	}

	r.logger.Debug("document upserted", zap.String("item_id", doc.ItemID))
	return nil
}

// Search returns the top-k documents nearest the query vector
func (r *CorpusRepository) Search(ctx context.Context, vector []float32, k int) ([]*models.IndexedDocument, error) {
	if len(vector) != r.cfg.Dimension {
		return nil, newDimensionError().
			WithDetail("got", len(vector)).
			WithDetail("want", r.cfg.Dimension)
	}
	if k <= 0 {
		k = 1
	}

	_, distanceOp, err := metricOperators(r.cfg.Metric)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT item_id, summary, record, %s AS score
		FROM catalog_documents
		ORDER BY %s %s $1
		LIMIT $2
	`, r.scoreExpr(distanceOp), r.cfg.Field, distanceOp)

	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, services.WrapStorage("failed to search corpus", err)
	}
	defer rows.Close()

	var docs []*models.IndexedDocument
	for rows.Next() {
		doc := &models.IndexedDocument{}
		var record []byte
		if err := rows.Scan(&doc.ItemID, &doc.Summary, &record, &doc.Score); err != nil {
			return nil, services.WrapStorage("failed to scan search result", err)
		}
		if err := json.Unmarshal(record, &doc.Record); err != nil {
			return nil, services.WrapInternal("failed to unmarshal catalog record", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, services.WrapStorage("error iterating search results", err)
	}

	return docs, nil
}

// Count returns the number of indexed documents
func (r *CorpusRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_documents").Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, services.WrapStorage("failed to count documents", err)
	}
	return count, nil
}
