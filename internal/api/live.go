package api

import (
	"net/http"

	"qrmenu-service/internal/feed"
	"qrmenu-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// liveSnapshot returns the current staff view as JSON
func (h *Handler) liveSnapshot(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	view, err := h.svc.Feed.Build(c.Request.Context(), restaurantID)
	if err != nil {
		h.logger.Error("Live view failed", zap.String("restaurant_id", restaurantID.String()), zap.Error(err))
		respondFail(c, http.StatusServiceUnavailable, service.CodeInternal, "Live view is unavailable")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"view": view})
}

// liveStream upgrades to a WebSocket carrying view snapshots
func (h *Handler) liveStream(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}
	feed.ServeWS(c.Request.Context(), h.svc.Hub, h.svc.Feed, restaurantID, c.Writer, c.Request)
}
