package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/catalog-assistant/models"
	"github.com/upb/catalog-assistant/utils"
	"go.uber.org/zap"
)

// ChatRequest represents an inbound chat message
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// ChatResponse represents a chat reply
type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// HistoryResponse represents a thread's persisted turn sequence
type HistoryResponse struct {
	ThreadID string         `json:"thread_id"`
	Turns    []*models.Turn `json:"turns"`
}

// ChatService defines the interface for the retrieval-augmented responder
type ChatService interface {
	// Respond answers a user message within a thread
	Respond(ctx context.Context, threadID, message string) (string, error)

	// History returns the ordered turn sequence for a thread
	History(ctx context.Context, threadID string) ([]*models.Turn, error)
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /chat.
// The thread ID is derived from the request time, starting a fresh thread.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	threadID := strconv.FormatInt(time.Now().UnixMilli(), 10)
	h.respond(w, r, threadID)
}

// HandleChatThread handles POST /chat/{threadID}
func (h *ChatHandler) HandleChatThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		_ = utils.WriteBadRequest(w, "thread ID is required", nil)
		return
	}
	h.respond(w, r, threadID)
}

// HandleHistory handles GET /chat/{threadID}/history.
// An unknown thread yields an empty turn list, not a 404.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		_ = utils.WriteBadRequest(w, "thread ID is required", nil)
		return
	}

	turns, err := h.service.History(r.Context(), threadID)
	if err != nil {
		h.logger.Error("failed to load history",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("thread_id", threadID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, HistoryResponse{ThreadID: threadID, Turns: turns})
}

// respond parses the chat request, invokes the responder, and writes the reply
func (h *ChatHandler) respond(w http.ResponseWriter, r *http.Request, threadID string) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	var chatReq ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&chatReq); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	h.logger.Debug("processing chat message",
		zap.String("request_id", requestID),
		zap.String("thread_id", threadID))

	reply, err := h.service.Respond(ctx, threadID, chatReq.Message)
	if err != nil {
		h.logger.Error("failed to process chat message",
			zap.String("request_id", requestID),
			zap.String("thread_id", threadID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("chat message answered",
		zap.String("request_id", requestID),
		zap.String("thread_id", threadID))

	if err := utils.WriteOK(w, ChatResponse{Response: reply, ThreadID: threadID}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
