package api

import (
	"net/http"

	"qrmenu-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type verifyRequest struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

// createCheckout starts an online card payment
func (h *Handler) createCheckout(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	req.RestaurantID = restaurantID.String()

	res, err := h.svc.Payments.CreateCheckout(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"order_id":   res.OrderID,
		"session_id": res.SessionID,
		"url":        res.URL,
	})
}

// verifyPayment confirms a checkout session on the diner's return
func (h *Handler) verifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil || req.SessionID == "" {
		h.badRequest(c, "session_id and order_id are required")
		return
	}

	res, err := h.svc.Payments.Verify(c.Request.Context(), req.SessionID, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"order_id":     res.OrderID,
		"already_paid": res.AlreadyPaid,
	})
}
