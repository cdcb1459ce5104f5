// Package cart keeps a diner's cart between page loads. A cart is a
// convenience copy of what the diner picked; it is never used to price
// an order.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a product snapshot with a quantity
type Item struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"max=200"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Options   *string         `json:"options,omitempty" validate:"omitempty,max=500"`
	Quantity  int             `json:"quantity" validate:"min=1,max=99"`
}

// Cart is the aggregate stored per restaurant and cart id
type Cart struct {
	ID           string    `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Items        []Item    `json:"items"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New creates an empty cart
func New(restaurantID uuid.UUID, id string) *Cart {
	return &Cart{ID: id, RestaurantID: restaurantID, Items: []Item{}}
}

func sameLine(a, b Item) bool {
	if a.ProductID != b.ProductID {
		return false
	}
	if a.Options == nil || b.Options == nil {
		return a.Options == nil && b.Options == nil
	}
	return *a.Options == *b.Options
}

// Add puts an item in the cart, merging it into an existing line for the
// same product and options
func (c *Cart) Add(item Item) {
	for i := range c.Items {
		if sameLine(c.Items[i], item) {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// SetQuantity changes the quantity of every line of a product. A
// quantity below one removes them.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) {
	if quantity < 1 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
		}
	}
}

// Remove drops every line of a product
func (c *Cart) Remove(productID uuid.UUID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// Total is the sum of price times quantity over all lines
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Count is the number of units in the cart
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
