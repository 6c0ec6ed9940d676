package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/txledger/internal/core/ports"
	"github.com/SscSPs/txledger/internal/dto"
	"github.com/SscSPs/txledger/internal/middleware"
)

type healthHandler struct {
	store  ports.Store
	outbox ports.OutboxStore
}

func newHealthHandler(store ports.Store, outbox ports.OutboxStore) *healthHandler {
	return &healthHandler{store: store, outbox: outbox}
}

// getHealth godoc
// @Summary Report store connectivity and outbox queue depth
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /health [get]
func (h *healthHandler) getHealth(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.store.HealthCheck(c.Request.Context()); err != nil {
		logger.Error("health check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store unreachable"})
		return
	}

	pending, pendingRetries, err := h.outbox.QueueDepths(c.Request.Context())
	if err != nil {
		logger.Error("failed to read outbox queue depths", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store unreachable"})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		DBConnected:    true,
		OutboxQueue:    pending,
		PendingRetries: pendingRetries,
		Metrics:        map[string]any{},
		Timestamp:      time.Now().UTC().Format(timeLayout),
	})
}

func registerHealthRoutes(r *gin.Engine, store ports.Store, outbox ports.OutboxStore) {
	h := newHealthHandler(store, outbox)
	r.GET("/health", h.getHealth)
}
