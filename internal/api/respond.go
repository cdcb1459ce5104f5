package api

import (
	"errors"
	"net/http"

	"qrmenu-service/internal/cart"
	"qrmenu-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var statusByCode = map[service.Code]int{
	service.CodeValidation:        http.StatusBadRequest,
	service.CodeOutOfStock:        http.StatusConflict,
	service.CodeProductNotFound:   http.StatusNotFound,
	service.CodeStockCheck:        http.StatusServiceUnavailable,
	service.CodeDBInsert:          http.StatusInternalServerError,
	service.CodeDBUpdate:          http.StatusInternalServerError,
	service.CodeItemsPersistence:  http.StatusInternalServerError,
	service.CodePaymentNotEnabled: http.StatusForbidden,
	service.CodeGateway:           http.StatusBadGateway,
	service.CodeNotPaid:           http.StatusPaymentRequired,
	service.CodeNotFound:          http.StatusNotFound,
	service.CodeInvalidTransition: http.StatusConflict,
	service.CodeInternal:          http.StatusInternalServerError,
}

func respondOK(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

func respondFail(c *gin.Context, status int, code service.Code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// respondError renders err with the status of its code. Unknown errors
// become INTERNAL_ERROR without their detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrInvalid) {
		h.logger.Info("Cart rejected", zap.String("path", c.FullPath()), zap.Error(err))
		respondFail(c, http.StatusBadRequest, service.CodeValidation, "Cart contains invalid items.")
		return
	}

	var se *service.Error
	if !errors.As(err, &se) || se.Code == service.CodeInternal {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondFail(c, http.StatusInternalServerError, service.CodeInternal, "Internal server error")
		return
	}

	status, ok := statusByCode[se.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", string(se.Code)),
			zap.Error(err))
	}
	respondFail(c, status, se.Code, se.Message)
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	respondFail(c, http.StatusBadRequest, service.CodeValidation, message)
}

// uuidParam parses a path parameter, answering 400 when it is malformed
func (h *Handler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
