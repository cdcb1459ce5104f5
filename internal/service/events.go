package service

import (
	"context"

	"qrmenu-service/internal/models"

	"go.uber.org/zap"
)

// EventPublisher announces state changes staff views depend on
type EventPublisher interface {
	PublishRestaurantEvent(ctx context.Context, event *models.RestaurantEvent) error
}

// publish sends an advisory event. Failures are logged and never fail
// the operation that triggered them.
func publish(ctx context.Context, publisher EventPublisher, logger *zap.Logger, event *models.RestaurantEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishRestaurantEvent(ctx, event); err != nil {
		logger.Error("Failed to publish event",
			zap.String("event_type", event.EventType),
			zap.String("restaurant_id", event.RestaurantID.String()),
			zap.Error(err))
	}
}
