package service

import (
	"context"
	"errors"
	"fmt"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/store"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore defines the DB methods the order lifecycle needs.
// Satisfied by *store.Store.
type OrderStore interface {
	AvailabilityReader
	orderWriter
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID, restaurantID uuid.UUID, status models.OrderStatus) (int64, error)
	UpdateOrderStatusFrom(ctx context.Context, orderID, restaurantID uuid.UUID, status models.OrderStatus, from []models.OrderStatus) (int64, error)
	ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOrder, error)
}

// OrderService handles order business logic
type OrderService struct {
	store          OrderStore
	gate           *AvailabilityGate
	saga           *orderSaga
	eventPublisher EventPublisher
	strict         bool
	logger         *zap.Logger
}

// NewOrderService creates a new order service. With strict set, status
// transitions must follow the order state machine; otherwise the new
// status is written unconditionally.
func NewOrderService(store OrderStore, eventPublisher EventPublisher, strict bool) *OrderService {
	logger := util.GetLogger()
	return &OrderService{
		store:          store,
		gate:           NewAvailabilityGate(store),
		saga:           &orderSaga{store: store, logger: logger},
		eventPublisher: eventPublisher,
		strict:         strict,
		logger:         logger,
	}
}

// CreateOrder validates a pay-at-counter order, checks availability and
// persists the order with its items. Prices and total are taken from the
// request as submitted.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (uuid.UUID, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	in, err := parseOrderInput(req)
	if err != nil {
		s.logger.Warn("Order validation failed", zap.Error(err))
		util.OrdersRejectedTotal.WithLabelValues(string(CodeOf(err))).Inc()
		return uuid.Nil, err
	}

	// check and insert are not atomic; a product may sell out in between
	if err := s.gate.Check(ctx, in.restaurantID, in.productIDs()); err != nil {
		util.OrdersRejectedTotal.WithLabelValues(string(CodeOf(err))).Inc()
		return uuid.Nil, err
	}

	order := &models.Order{
		RestaurantID:  in.restaurantID,
		TableID:       in.tableID,
		TotalAmount:   in.total,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CustomerNote:  in.note,
	}

	if err := s.saga.run(ctx, order, in.orderItems(uuid.Nil)); err != nil {
		util.RecordError(span, err)
		util.OrdersRejectedTotal.WithLabelValues(string(CodeOf(err))).Inc()
		return uuid.Nil, err
	}

	util.OrdersCreatedTotal.WithLabelValues("counter").Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("restaurant_id", order.RestaurantID.String()),
		zap.String("total", order.TotalAmount.String()))

	event := &models.RestaurantEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeOrderCreated),
		RestaurantID: order.RestaurantID,
		OrderID:      &order.ID,
		TableID:      order.TableID,
		Status:       string(order.Status),
	}
	publish(ctx, s.eventPublisher, s.logger, event)

	return order.ID, nil
}

// TransitionStatus moves an order of a restaurant to a new status
func (s *OrderService) TransitionStatus(ctx context.Context, orderID, restaurantID uuid.UUID, next models.OrderStatus) error {
	ctx, span := util.StartSpan(ctx, "OrderService.TransitionStatus")
	defer span.End()

	if !next.Valid() {
		return newError(CodeValidation, fmt.Sprintf("Unknown order status %q.", next), nil)
	}

	var order *models.Order
	if s.strict {
		var err error
		order, err = s.transitionStrict(ctx, orderID, restaurantID, next)
		if err != nil {
			util.RecordError(span, err)
			return err
		}
	} else {
		n, err := s.store.UpdateOrderStatus(ctx, orderID, restaurantID, next)
		if err != nil {
			util.RecordError(span, err)
			return newError(CodeDBUpdate, "Order status could not be updated.", err)
		}
		if n == 0 {
			return newError(CodeNotFound, "Order not found.", nil)
		}
	}

	util.OrderTransitionsTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info("Order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(next)))

	event := &models.RestaurantEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeOrderStatusChanged),
		RestaurantID: restaurantID,
		OrderID:      &orderID,
		Status:       string(next),
		FreesTable:   next.FreesTable(),
	}
	if order != nil {
		event.TableID = order.TableID
	}
	publish(ctx, s.eventPublisher, s.logger, event)

	return nil
}

// transitionStrict enforces the state machine. The write is conditioned
// on the order still being in a legal predecessor state, so a terminal
// order is never reopened by a concurrent request.
func (s *OrderService) transitionStrict(ctx context.Context, orderID, restaurantID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(CodeNotFound, "Order not found.", err)
	}
	if err != nil {
		return nil, newError(CodeDBUpdate, "Order status could not be updated.", err)
	}
	if order.RestaurantID != restaurantID {
		return nil, newError(CodeNotFound, "Order not found.", nil)
	}
	if order.Status == next && !next.IsTerminal() {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, newError(CodeInvalidTransition,
			fmt.Sprintf("An order in status %q cannot move to %q.", order.Status, next), nil)
	}

	n, err := s.store.UpdateOrderStatusFrom(ctx, orderID, restaurantID, next, next.Predecessors())
	if err != nil {
		return nil, newError(CodeDBUpdate, "Order status could not be updated.", err)
	}
	if n == 0 {
		return nil, newError(CodeInvalidTransition, "The order was changed by someone else, refresh and retry.", nil)
	}
	return order, nil
}

// ListActive returns pending, preparing and served orders, newest first
func (s *OrderService) ListActive(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOrder, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListActive")
	defer span.End()

	orders, err := s.store.ListActiveOrders(ctx, restaurantID)
	if err != nil {
		util.RecordError(span, err)
		return nil, newError(CodeInternal, "Orders could not be loaded.", err)
	}
	return orders, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, newError(CodeNotFound, "Order not found.", err)
	}
	if err != nil {
		return nil, nil, newError(CodeInternal, "Order could not be loaded.", err)
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, newError(CodeInternal, "Order could not be loaded.", err)
	}
	return order, items, nil
}
