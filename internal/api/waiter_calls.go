package api

import (
	"net/http"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/service"

	"github.com/gin-gonic/gin"
)

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

func (h *Handler) requestWaiter(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	var req service.WaiterCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	req.RestaurantID = restaurantID.String()

	call, err := h.svc.Waiters.RequestWaiter(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"call": call})
}

func (h *Handler) listPendingCalls(c *gin.Context) {
	restaurantID, ok := h.uuidParam(c, "rid")
	if !ok {
		return
	}

	calls, err := h.svc.Waiters.ListPending(c.Request.Context(), restaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if calls == nil {
		calls = []models.WaiterCall{}
	}

	respondOK(c, http.StatusOK, gin.H{"calls": calls})
}

func (h *Handler) completeCall(c *gin.Context) {
	callID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	call, err := h.svc.Waiters.CompleteCall(c.Request.Context(), callID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"call": call})
}

// setAvailability is the staff sold-out toggle
func (h *Handler) setAvailability(c *gin.Context) {
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAvailable == nil {
		h.badRequest(c, "is_available is required")
		return
	}

	if err := h.svc.Products.SetAvailability(c.Request.Context(), productID, *req.IsAvailable); err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"product_id": productID, "is_available": *req.IsAvailable})
}
