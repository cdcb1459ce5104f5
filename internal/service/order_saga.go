package service

import (
	"context"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// orderWriter is the persistence the order saga drives
type orderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// orderSaga writes an order and its items as two steps. The store has
// no transaction spanning both tables, so a failed item insert is undone
// by deleting the order row before the caller sees the error.
type orderSaga struct {
	store  orderWriter
	logger *zap.Logger
}

// run inserts order, then items. order.ID is set on success.
func (sg *orderSaga) run(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	ctx, span := util.StartSpan(ctx, "OrderSaga.Run")
	defer span.End()

	if err := sg.store.CreateOrder(ctx, order); err != nil {
		util.RecordError(span, err)
		sg.logger.Error("Order insert failed",
			zap.String("restaurant_id", order.RestaurantID.String()),
			zap.Error(err))
		return newError(CodeDBInsert, "Order could not be saved.", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}

	if err := sg.store.CreateOrderItems(ctx, items); err != nil {
		util.RecordError(span, err)
		sg.logger.Error("Order items insert failed, rolling back order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		sg.compensate(ctx, order.ID)
		return newError(CodeItemsPersistence, "Items could not be saved, the order was cancelled.", err)
	}

	return nil
}

// compensate deletes the order row left behind by a failed item insert
func (sg *orderSaga) compensate(ctx context.Context, orderID uuid.UUID) {
	util.OrdersRolledBackTotal.Inc()

	// the request context may already be cancelled; the rollback must still run
	if err := sg.store.DeleteOrder(context.WithoutCancel(ctx), orderID); err != nil {
		sg.logger.Error("Failed to roll back order",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}
