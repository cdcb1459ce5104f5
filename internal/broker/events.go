package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishRestaurantEvent publishes a change keyed by restaurant
func (ep *EventPublisher) PublishRestaurantEvent(ctx context.Context, event *models.RestaurantEvent) error {
	key := fmt.Sprintf("restaurant-%s", event.RestaurantID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onRestaurantEvent func(context.Context, *models.RestaurantEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnRestaurantEvent registers a handler for every known restaurant event
func (eh *EventHandler) OnRestaurantEvent(handler func(context.Context, *models.RestaurantEvent) error) {
	eh.onRestaurantEvent = handler
}

// HandleMessage routes messages to appropriate handlers. Undecodable
// messages are logged and skipped; retrying them cannot help.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		eh.logger.Warn("Skipping undecodable event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated,
		models.EventTypeOrderStatusChanged,
		models.EventTypeOrderPaid,
		models.EventTypeWaiterCallCreated,
		models.EventTypeWaiterCallCompleted,
		models.EventTypeProductAvailability:
		if eh.onRestaurantEvent == nil {
			return nil
		}
		var event models.RestaurantEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			eh.logger.Warn("Skipping undecodable restaurant event",
				zap.String("event_type", baseEvent.EventType),
				zap.Error(err))
			return nil
		}
		return eh.onRestaurantEvent(ctx, &event)

	default:
		eh.logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
