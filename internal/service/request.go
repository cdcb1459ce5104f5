package service

import (
	"strings"

	"qrmenu-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one cart line as submitted by the diner
type OrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Options   *string         `json:"options,omitempty" validate:"omitempty,max=500"`
	Name      string          `json:"name,omitempty" validate:"max=200"`
	ImageURL  *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

// CreateOrderRequest is the diner-facing order submission
type CreateOrderRequest struct {
	RestaurantID string             `json:"restaurant_id" validate:"required,uuid"`
	TableID      *string            `json:"table_id,omitempty"`
	Items        []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount  decimal.Decimal    `json:"total_amount" validate:"gte=0"`
	Note         string             `json:"note,omitempty" validate:"max=500"`
}

// orderLine is a validated cart line
type orderLine struct {
	productID uuid.UUID
	quantity  int
	price     decimal.Decimal
	options   *string
	name      string
	imageURL  *string
}

// orderInput is a validated order submission
type orderInput struct {
	restaurantID uuid.UUID
	tableID      *uuid.UUID
	lines        []orderLine
	total        decimal.Decimal
	note         *string
}

var validate = models.NewValidator()

func validationError(err error) *Error {
	return newError(CodeValidation, "Invalid order data.", err)
}

// parseLines validates the cart lines shared by counter and online orders
func parseLines(items []OrderItemRequest) ([]orderLine, error) {
	lines := make([]orderLine, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, validationError(err)
		}
		lines = append(lines, orderLine{
			productID: productID,
			quantity:  item.Quantity,
			price:     item.Price,
			options:   item.Options,
			name:      item.Name,
			imageURL:  item.ImageURL,
		})
	}
	return lines, nil
}

func parseTableID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, validationError(err)
	}
	return &id, nil
}

func parseOrderInput(req *CreateOrderRequest) (*orderInput, error) {
	if req == nil {
		return nil, validationError(nil)
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		return nil, validationError(err)
	}
	tableID, err := parseTableID(req.TableID)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(req.Items)
	if err != nil {
		return nil, err
	}

	in := &orderInput{
		restaurantID: restaurantID,
		tableID:      tableID,
		lines:        lines,
		total:        req.TotalAmount,
	}

	// the caller's prices are trusted, but the total must agree with them
	if !in.total.Equal(in.lineSum()) {
		return nil, newError(CodeValidation, "Order total does not match its items.", nil)
	}

	if note := strings.TrimSpace(req.Note); note != "" {
		in.note = &note
	}
	return in, nil
}

func (in *orderInput) productIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(in.lines))
	for i, line := range in.lines {
		ids[i] = line.productID
	}
	return ids
}

func (in *orderInput) lineSum() decimal.Decimal {
	return models.SumLineTotals(in.orderItems(uuid.Nil))
}

func (in *orderInput) orderItems(orderID uuid.UUID) []models.OrderItem {
	items := make([]models.OrderItem, len(in.lines))
	for i, line := range in.lines {
		items[i] = models.OrderItem{
			OrderID:     orderID,
			ProductID:   line.productID,
			Quantity:    line.quantity,
			PriceAtTime: line.price,
			Options:     line.options,
		}
	}
	return items
}
