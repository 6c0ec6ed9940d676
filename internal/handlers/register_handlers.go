package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SscSPs/txledger/internal/core/ports"
	"github.com/SscSPs/txledger/internal/core/services"
	"github.com/SscSPs/txledger/internal/middleware"
	"github.com/SscSPs/txledger/internal/platform/config"
)

// Services bundles the service-layer dependencies RegisterRoutes wires
// into handlers, mirroring the teacher's RegisterRoutes parameter list
// generalized to this domain's five operations.
type Services struct {
	Poster     *services.JournalPoster
	History    *services.HistoryService
	Dispatcher *services.OutboxDispatcher
	Acks       *services.AckService
	Store      ports.Store
	Outbox     ports.OutboxStore
}

// RegisterRoutes sets up every route this module exposes.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, svc Services) {
	authed := middleware.APIKeyAuth(cfg.APIKey)

	registerJournalRoutes(r, authed, svc.Poster)
	registerAccountRoutes(r, svc.History)
	registerOutboxRoutes(r, authed, svc.Dispatcher)
	registerEventsRoutes(r, svc.Acks)
	registerHealthRoutes(r, svc.Store, svc.Outbox)
}
