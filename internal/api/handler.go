package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"qrmenu-service/internal/cart"
	"qrmenu-service/internal/feed"
	"qrmenu-service/internal/models"
	"qrmenu-service/internal/service"
	"qrmenu-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OrderService is the order lifecycle used by the HTTP layer
type OrderService interface {
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (uuid.UUID, error)
	TransitionStatus(ctx context.Context, orderID, restaurantID uuid.UUID, next models.OrderStatus) error
	ListActive(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, []models.OrderItem, error)
}

// PaymentService is online checkout and its verification
type PaymentService interface {
	CreateCheckout(ctx context.Context, req *service.CheckoutRequest) (*service.CheckoutResult, error)
	Verify(ctx context.Context, sessionID string, orderID uuid.UUID) (*service.VerifyResult, error)
}

// WaiterService is diner calls for staff attention
type WaiterService interface {
	RequestWaiter(ctx context.Context, req *service.WaiterCallRequest) (*models.WaiterCall, error)
	ListPending(ctx context.Context, restaurantID uuid.UUID) ([]models.WaiterCall, error)
	CompleteCall(ctx context.Context, callID uuid.UUID) (*models.WaiterCall, error)
}

// ProductService is the staff availability toggle
type ProductService interface {
	SetAvailability(ctx context.Context, productID uuid.UUID, available bool) error
}

// CartService is diner cart persistence
type CartService interface {
	Get(ctx context.Context, restaurantID uuid.UUID, cartID string) (*cart.Cart, error)
	Replace(ctx context.Context, restaurantID uuid.UUID, cartID string, items []cart.Item) (*cart.Cart, error)
	Clear(ctx context.Context, restaurantID uuid.UUID, cartID string) error
}

// ViewBuilder builds live feed snapshots
type ViewBuilder interface {
	Build(ctx context.Context, restaurantID uuid.UUID) (*feed.View, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the handler serves
type Services struct {
	Orders   OrderService
	Payments PaymentService
	Waiters  WaiterService
	Products ProductService
	Carts    CartService
	Feed     ViewBuilder
	Hub      *feed.Hub
	// Checks are pinged by /ready, keyed by name
	Checks map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services) *Handler {
	return &Handler{
		svc:    svc,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		restaurants := v1.Group("/restaurants/:rid")
		restaurants.POST("/orders", h.createOrder)
		restaurants.GET("/orders/active", h.listActiveOrders)
		restaurants.POST("/checkout", h.createCheckout)
		restaurants.POST("/waiter-calls", h.requestWaiter)
		restaurants.GET("/waiter-calls", h.listPendingCalls)
		restaurants.GET("/live", h.liveSnapshot)
		restaurants.GET("/carts/:cartId", h.getCart)
		restaurants.PUT("/carts/:cartId", h.replaceCart)
		restaurants.DELETE("/carts/:cartId", h.clearCart)

		v1.GET("/orders/:id", h.getOrder)
		v1.PATCH("/orders/:id/status", h.transitionOrder)
		v1.POST("/payments/verify", h.verifyPayment)
		v1.POST("/waiter-calls/:id/complete", h.completeCall)
		v1.PATCH("/products/:id/availability", h.setAvailability)
	}

	router.GET("/ws/restaurants/:rid/live", h.liveStream)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, p := range h.svc.Checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "down"
			ready = false
			continue
		}
		checks[name] = "up"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger writes one structured line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
