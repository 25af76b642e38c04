package handlers

import (
	"net/http"

	"github.com/upb/catalog-assistant/config"
	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/utils"
	"go.uber.org/zap"
)

// CorpusStatsResponse reports corpus size and index configuration
type CorpusStatsResponse struct {
	Documents int    `json:"documents"`
	IndexName string `json:"index_name"`
	Metric    string `json:"metric"`
	Dimension int    `json:"dimension"`
}

// CorpusHandler exposes read-only corpus information
type CorpusHandler struct {
	corpus repositories.CorpusRepository
	vector config.VectorConfig
	logger *zap.Logger
}

// NewCorpusHandler creates a new CorpusHandler
func NewCorpusHandler(corpus repositories.CorpusRepository, vector config.VectorConfig, logger *zap.Logger) *CorpusHandler {
	return &CorpusHandler{
		corpus: corpus,
		vector: vector,
		logger: logger,
	}
}

// HandleStats handles GET /api/v1/corpus/stats
func (h *CorpusHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.corpus.Count(r.Context())
	if err != nil {
		h.logger.Error("failed to count corpus documents", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, CorpusStatsResponse{
		Documents: count,
		IndexName: h.vector.IndexName,
		Metric:    h.vector.Metric,
		Dimension: h.vector.Dimension,
	})
}
