package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/catalog-assistant/repositories"
	"github.com/upb/catalog-assistant/utils"
	"go.uber.org/zap"
)

// HealthResponse reports liveness, and for readiness the state of each
// dependency the chat pipeline needs
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Documents *int              `json:"documents,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	corpus repositories.CorpusRepository
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, corpus repositories.CorpusRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		corpus: corpus,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: returns 200 whenever the process is up
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
// Readiness requires the database to answer and the corpus to be countable.
// An empty corpus is still ready: ingestion runs out of band.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database readiness check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	response := HealthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if h.corpus != nil {
		if count, err := h.corpus.Count(ctx); err != nil {
			h.logger.Warn("corpus readiness check failed", zap.Error(err))
			checks["corpus"] = "unhealthy"
			allHealthy = false
		} else {
			checks["corpus"] = "healthy"
			response.Documents = &count
		}
	}

	response.Status = "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		response.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase verifies the connection pool can both ping and query
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}
