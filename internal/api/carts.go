package api

import (
	"net/http"

	"qrmenu-service/internal/cart"

	"github.com/gin-gonic/gin"
)

type cartRequest struct {
	Items []cart.Item `json:"items"`
}

func (h *Handler) getCart(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	ct, err := h.svc.Carts.Get(c.Request.Context(), restaurantID, c.Param("cartId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"cart": ct, "total": ct.Total(), "count": ct.Count()})
}

func (h *Handler) replaceCart(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	ct, err := h.svc.Carts.Replace(c.Request.Context(), restaurantID, c.Param("cartId"), req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"cart": ct, "total": ct.Total(), "count": ct.Count()})
}

func (h *Handler) clearCart(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	if err := h.svc.Carts.Clear(c.Request.Context(), restaurantID, c.Param("cartId")); err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, nil)
}
