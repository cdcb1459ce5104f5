package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeOrderCreated        = "ORDER_CREATED"
	EventTypeOrderStatusChanged  = "ORDER_STATUS_CHANGED"
	EventTypeOrderPaid           = "ORDER_PAID"
	EventTypeWaiterCallCreated   = "WAITER_CALL_CREATED"
	EventTypeWaiterCallCompleted = "WAITER_CALL_COMPLETED"
	EventTypeProductAvailability = "PRODUCT_AVAILABILITY_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// RestaurantEvent is published whenever state a staff view depends on
// changes. It is keyed by restaurant so one tenant's events stay ordered.
type RestaurantEvent struct {
	BaseEvent
	RestaurantID uuid.UUID  `json:"restaurant_id"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	CallID       *uuid.UUID `json:"call_id,omitempty"`
	ProductID    *uuid.UUID `json:"product_id,omitempty"`
	TableID      *uuid.UUID `json:"table_id,omitempty"`
	Status       string     `json:"status,omitempty"`
	FreesTable   bool       `json:"frees_table,omitempty"`
}
