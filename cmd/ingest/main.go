// The ingest tool populates the retrieval corpus: it resets the search index,
// generates (or loads) schema-conforming catalog records, and embeds and
// upserts each one. Ingestion is an exclusive maintenance operation and must
// not run concurrently with chat traffic against the same index.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/upb/catalog-assistant/app"
	"github.com/upb/catalog-assistant/config"
	"github.com/upb/catalog-assistant/internal/observability"
	"github.com/upb/catalog-assistant/models"
	"go.uber.org/zap"
)

func main() {
	var (
		count    = flag.Int("count", 0, "number of synthetic records to generate (default from SYNTHETIC_RECORD_COUNT)")
		reset    = flag.Bool("reset", true, "drop and recreate the search index before writing")
		file     = flag.String("file", "", "ingest records from a JSON file instead of generating")
		failFast = flag.Bool("fail-fast", false, "abort the batch on the first indexing failure")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.New(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer func() { _ = deps.Close(ctx) }()

	if *reset {
		if err := deps.Indexer.Reset(ctx); err != nil {
			logger.Fatal("corpus reset failed", zap.Error(err))
		}
	}

	var records []models.CatalogRecord
	if *file != "" {
		records = loadRecords(*file, logger)
	} else {
		target := *count
		if target <= 0 {
			target = cfg.Ingest.SyntheticRecordCount
		}
		records = deps.Generator.Generate(ctx, target)
	}

	if len(records) == 0 {
		logger.Warn("no records to ingest")
		return
	}

	indexed, err := deps.Indexer.IndexRecords(ctx, records, *failFast)
	if err != nil && *failFast {
		logger.Fatal("ingestion aborted", zap.Int("indexed", indexed), zap.Error(err))
	}

	logger.Info("ingestion complete",
		zap.Int("indexed", indexed),
		zap.Int("total", len(records)))
}

// loadRecords reads catalog records from a JSON file. ParseRecords validates
// each record as it decodes.
func loadRecords(path string, logger *zap.Logger) []models.CatalogRecord {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("failed to read records file", zap.String("path", path), zap.Error(err))
	}

	records, err := models.ParseRecords(string(data))
	if err != nil {
		logger.Fatal("failed to parse records file", zap.String("path", path), zap.Error(err))
	}
	return records
}
