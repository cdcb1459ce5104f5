package api

import (
	"net/http"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type transitionRequest struct {
	Status       string `json:"status"`
	RestaurantID string `json:"restaurant_id"`
}

// createOrder handles pay-at-counter order creation
func (h *Handler) createOrder(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	req.RestaurantID = restaurantID.String()

	orderID, err := h.svc.Orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"order_id": orderID})
}

// listActiveOrders returns the kitchen queue of a restaurant
func (h *Handler) listActiveOrders(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	orders, err := h.svc.Orders.ListActive(c.Request.Context(), restaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.ActiveOrder{}
	}

	respondOK(c, http.StatusOK, gin.H{"orders": orders})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	order, items, err := h.svc.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if items == nil {
		items = []models.OrderItem{}
	}

	respondOK(c, http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// transitionOrder moves an order to a new status
func (h *Handler) transitionOrder(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		h.badRequest(c, "Invalid restaurant_id")
		return
	}
	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		h.badRequest(c, "Unknown order status")
		return
	}

	if err := h.svc.Orders.TransitionStatus(c.Request.Context(), orderID, restaurantID, status); err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"order_id": orderID, "status": status})
}
