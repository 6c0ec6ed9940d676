package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/txledger/internal/core/services"
	"github.com/SscSPs/txledger/internal/dto"
	"github.com/SscSPs/txledger/internal/middleware"
)

type accountHandler struct {
	history *services.HistoryService
}

func newAccountHandler(history *services.HistoryService) *accountHandler {
	return &accountHandler{history: history}
}

// getAccountHistory godoc
// @Summary Get an account's ledger history
// @Description Returns the chronological, optionally currency-filtered, entry list for one account
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Param currency query string false "Currency filter"
// @Success 200 {object} dto.AccountHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /accounts/{id}/history [get]
func (h *accountHandler) getAccountHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID := c.Param("id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing account id"})
		return
	}
	currency := c.Query("currency")

	result, err := h.history.History(c.Request.Context(), accountID, currency)
	if err != nil {
		logger.Error("failed to load account history", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
		return
	}

	if len(result.History) == 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no history for account"})
		return
	}

	items := make([]dto.HistoryItem, 0, len(result.History))
	for _, p := range result.History {
		items = append(items, dto.HistoryItem{
			Transition: string(p.Transition),
			Amount:     p.Amount,
			Timestamp:  p.Timestamp.Format(timeLayout),
		})
	}

	c.JSON(http.StatusOK, dto.AccountHistoryResponse{
		AccountID: result.AccountID,
		Currency:  result.Currency,
		History:   items,
	})
}

func registerAccountRoutes(r *gin.Engine, history *services.HistoryService) {
	h := newAccountHandler(history)
	r.GET("/accounts/:id/history", h.getAccountHistory)
}
