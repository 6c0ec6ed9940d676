package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/txledger/internal/apperrors"
	"github.com/SscSPs/txledger/internal/core/services"
	"github.com/SscSPs/txledger/internal/core/validation"
	"github.com/SscSPs/txledger/internal/dto"
	"github.com/SscSPs/txledger/internal/middleware"
)

type journalHandler struct {
	poster *services.JournalPoster
}

func newJournalHandler(poster *services.JournalPoster) *journalHandler {
	return &journalHandler{poster: poster}
}

// postJournal godoc
// @Summary Post a balanced multi-line journal
// @Description Validates, then atomically posts a journal's lines against account buckets
// @Tags journal
// @Accept json
// @Produce json
// @Param journal body dto.PostJournalRequest true "Journal"
// @Success 200 {object} dto.PostJournalResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /journal [post]
func (h *journalHandler) postJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("failed to bind journal request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid JSON body"})
		return
	}

	if err := validation.ValidateShape(&req); err != nil {
		var issues *validation.ValidationIssues
		if errors.As(err, &issues) {
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "schema validation failed", Details: issues.Issues})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		return
	}

	lines, err := validation.ParseLines(req.Lines)
	if err != nil {
		writeDomainError(c, logger, err)
		return
	}

	if err := validation.Preflight(lines); err != nil {
		writeDomainError(c, logger, err)
		return
	}

	journalID, err := h.poster.Post(c.Request.Context(), services.PostJournal{
		JournalID:      req.JournalID,
		IdempotencyKey: req.IdempotencyKey,
		Lines:          lines,
	})
	if err != nil {
		writeDomainError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.PostJournalResponse{OK: true, JournalID: journalID})
}

// writeDomainError maps the apperrors taxonomy to the status codes
// §7 specifies. Kept separate from the handler body so every handler
// that surfaces a posting/validation error classifies it identically.
func writeDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnbalanced),
		errors.Is(err, apperrors.ErrCurrencyMismatch),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrMissingBucket),
		errors.Is(err, apperrors.ErrInvalidBucket),
		errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrNegativeBalance),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrValidation):
		logger.Warn("rejected journal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrDuplicateKey):
		logger.Warn("duplicate key", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrChaosFailure), errors.Is(err, apperrors.ErrInternal):
		logger.Error("internal error posting journal", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	default:
		logger.Error("unclassified error posting journal", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func methodNotAllowed(allow string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Allow", allow)
		c.JSON(http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
	}
}

func registerJournalRoutes(r *gin.Engine, authed gin.HandlerFunc, poster *services.JournalPoster) {
	h := newJournalHandler(poster)
	r.POST("/journal", authed, h.postJournal)
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		r.Handle(m, "/journal", methodNotAllowed(http.MethodPost))
	}
}
