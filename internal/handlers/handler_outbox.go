package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/txledger/internal/core/services"
	"github.com/SscSPs/txledger/internal/dto"
	"github.com/SscSPs/txledger/internal/middleware"
)

type outboxHandler struct {
	dispatcher *services.OutboxDispatcher
}

func newOutboxHandler(dispatcher *services.OutboxDispatcher) *outboxHandler {
	return &outboxHandler{dispatcher: dispatcher}
}

// processOutbox godoc
// @Summary Drain and dispatch due outbox items
// @Description Claims up to maxBatch due items and POSTs each to the configured target
// @Tags outbox
// @Produce json
// @Param maxBatch query int false "Maximum items to process"
// @Param maxBackoffMs query int false "Backoff cap in milliseconds"
// @Param timeoutMs query int false "Per-dispatch timeout in milliseconds"
// @Param target query string false "Override dispatch target URL"
// @Success 200 {object} dto.OutboxProcessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /outbox/process [post]
func (h *outboxHandler) processOutbox(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	opts := services.ProcessOptions{
		MaxBatch:     queryInt(c, "maxBatch"),
		MaxBackoffMs: queryInt(c, "maxBackoffMs"),
		TimeoutMs:    queryInt(c, "timeoutMs"),
		Target:       c.Query("target"),
	}

	result, err := h.dispatcher.ProcessOnce(c.Request.Context(), opts)
	if err != nil {
		logger.Error("outbox processOnce failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.OutboxProcessResponse{
		Attempted:      result.Attempted,
		Sent:           result.Sent,
		Retried:        result.Retried,
		Pending:        result.Pending,
		PendingRetries: result.PendingRetries,
	})
}

func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func registerOutboxRoutes(r *gin.Engine, authed gin.HandlerFunc, dispatcher *services.OutboxDispatcher) {
	h := newOutboxHandler(dispatcher)
	r.POST("/outbox/process", authed, h.processOutbox)
}
