package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/txledger/internal/core/services"
	"github.com/SscSPs/txledger/internal/dto"
	"github.com/SscSPs/txledger/internal/middleware"
)

type eventsHandler struct {
	acks *services.AckService
}

func newEventsHandler(acks *services.AckService) *eventsHandler {
	return &eventsHandler{acks: acks}
}

// ingestEvent godoc
// @Summary Acknowledge a delivered ledger event
// @Description Idempotent ingress for the outbox's dispatched events; a replayed journalId is treated as success
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.EventIngressRequest true "Event"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /events [post]
func (h *eventsHandler) ingestEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.EventIngressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid JSON body"})
		return
	}
	if req.JournalID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing journalId"})
		return
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}

	if err := h.acks.Ack(c.Request.Context(), req.JournalID, req.Topic, payload); err != nil {
		logger.Error("failed to ack event", slog.String("error", err.Error()), slog.String("journal_id", req.JournalID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func registerEventsRoutes(r *gin.Engine, acks *services.AckService) {
	h := newEventsHandler(acks)
	r.POST("/events", h.ingestEvent)
}
