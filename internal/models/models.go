package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Restaurant holds the tenant fields the ordering core reads
type Restaurant struct {
	ID               uuid.UUID `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Slug             string    `db:"slug" json:"slug"`
	Currency         string    `db:"currency" json:"currency"`
	IsPaymentEnabled bool      `db:"is_payment_enabled" json:"is_payment_enabled"`
	StripeAccountID  *string   `db:"stripe_account_id" json:"stripe_account_id,omitempty"`
}

// Product represents a menu product. StockQuantity and TrackStock are
// carried as metadata only; ordering is gated on IsAvailable.
type Product struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	RestaurantID  uuid.UUID       `db:"restaurant_id" json:"restaurant_id"`
	Name          string          `db:"name" json:"name"`
	Price         decimal.Decimal `db:"price" json:"price"`
	ImageURL      *string         `db:"image_url" json:"image_url,omitempty"`
	IsAvailable   bool            `db:"is_available" json:"is_available"`
	StockQuantity *int            `db:"stock_quantity" json:"stock_quantity,omitempty"`
	TrackStock    bool            `db:"track_stock" json:"track_stock"`
}

// ProductAvailability is the narrow row read by the availability gate
type ProductAvailability struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}

// Table is a physical seating unit on the floor plan
type Table struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RestaurantID uuid.UUID `db:"restaurant_id" json:"restaurant_id"`
	Name         string    `db:"name" json:"name"`
	PositionX    float64   `db:"position_x" json:"position_x"`
	PositionY    float64   `db:"position_y" json:"position_y"`
	Shape        string    `db:"shape" json:"shape"`
	Color        string    `db:"color" json:"color"`
}

// Order represents one diner transaction
type Order struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	RestaurantID    uuid.UUID       `db:"restaurant_id" json:"restaurant_id"`
	TableID         *uuid.UUID      `db:"table_id" json:"table_id,omitempty"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status          OrderStatus     `db:"status" json:"status"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"payment_status"`
	CustomerNote    *string         `db:"customer_note" json:"customer_note,omitempty"`
	StripeSessionID *string         `db:"stripe_session_id" json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is one product quantity within an order. PriceAtTime is
// captured at order time and never rewritten.
type OrderItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OrderID     uuid.UUID       `db:"order_id" json:"order_id"`
	ProductID   uuid.UUID       `db:"product_id" json:"product_id"`
	Quantity    int             `db:"quantity" json:"quantity"`
	PriceAtTime decimal.Decimal `db:"price_at_time" json:"price_at_time"`
	Options     *string         `db:"options" json:"options,omitempty"`
}

// LineTotal returns price × quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ActiveOrderItem is an order item joined with its product name
type ActiveOrderItem struct {
	OrderItem
	ProductName string `db:"product_name" json:"product_name"`
}

// ActiveOrder is an order with its items, as shown on the staff board
type ActiveOrder struct {
	Order
	Items []ActiveOrderItem `json:"items"`
}

// WaiterCall is a diner-initiated service request
type WaiterCall struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	RestaurantID uuid.UUID  `db:"restaurant_id" json:"restaurant_id"`
	TableID      *uuid.UUID `db:"table_id" json:"table_id,omitempty"`
	Type         CallType   `db:"type" json:"type"`
	Status       CallStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// SumLineTotals adds up price × quantity over items
func SumLineTotals(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
