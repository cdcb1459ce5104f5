package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qrmenu-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, restaurant_id, table_id, total_amount, status, payment_status,
	customer_note, stripe_session_id, created_at`

// CreateOrder inserts an order row and fills in its generated id and timestamp
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (restaurant_id, table_id, total_amount, status, payment_status, customer_note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		order.RestaurantID, order.TableID, order.TotalAmount,
		order.Status, order.PaymentStatus, order.CustomerNote,
	).Scan(&order.ID, &order.CreatedAt)
}

// CreateOrderItems inserts all line items of an order in one statement
func (s *Store) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_time, options)
		VALUES (:order_id, :product_id, :quantity, :price_at_time, :options)`

	_, err := s.db.NamedExecContext(ctx, query, items)
	return err
}

// DeleteOrder removes an order row. It is only used to roll back an
// order whose items could not be written.
func (s *Store) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderBySession retrieves an order only if it carries the given checkout session
func (s *Store) GetOrderBySession(ctx context.Context, orderID uuid.UUID, sessionID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND stripe_session_id = $2",
		orderID, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s with session %s: %w", orderID, sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, order_id, product_id, quantity, price_at_time, options
		FROM order_items WHERE order_id = $1`, orderID)
	return items, err
}

// UpdateOrderStatus writes a status unconditionally within a restaurant
// and reports how many rows changed.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, restaurantID uuid.UUID, status models.OrderStatus) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2 AND restaurant_id = $3",
		status, orderID, restaurantID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateOrderStatusFrom writes a status only while the order is still in
// one of the given statuses. Terminal orders are never matched.
func (s *Store) UpdateOrderStatusFrom(ctx context.Context, orderID, restaurantID uuid.UUID, status models.OrderStatus, from []models.OrderStatus) (int64, error) {
	query, args, err := sqlx.In(
		"UPDATE orders SET status = ? WHERE id = ? AND restaurant_id = ? AND status IN (?)",
		status, orderID, restaurantID, from)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetOrderSession stores the checkout session id used to correlate verification
func (s *Store) SetOrderSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET stripe_session_id = $1 WHERE id = $2",
		sessionID, orderID)
	return err
}

// MarkOrderPaid records a confirmed online payment. The update is scoped
// by both order id and session id and never touches a paid or cancelled
// order. A pending order moves on to preparing; orders staff already
// advanced keep their status.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, sessionID, note string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1,
			status = CASE WHEN status = $2 THEN $3 ELSE status END,
			customer_note = $4
		WHERE id = $5 AND stripe_session_id = $6 AND payment_status = $7
			AND status NOT IN ($8, $9)`,
		models.PaymentStatusPaid, models.OrderStatusPending, models.OrderStatusPreparing, note,
		orderID, sessionID, models.PaymentStatusUnpaid,
		models.OrderStatusPaid, models.OrderStatusCancelled)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActiveOrders retrieves the active orders of a restaurant, newest
// first, each with its items and product names.
func (s *Store) ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOrder, error) {
	query, args, err := sqlx.In(
		"SELECT "+orderColumns+" FROM orders WHERE restaurant_id = ? AND status IN (?) ORDER BY created_at DESC, id",
		restaurantID, models.ActiveOrderStatuses)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := s.db.SelectContext(ctx, &orders, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	if len(orders) == 0 {
		return []models.ActiveOrder{}, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	query, args, err = sqlx.In(`
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_time, oi.options,
			COALESCE(p.name, '') AS product_name
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (?)
		ORDER BY oi.order_id, oi.id`, ids)
	if err != nil {
		return nil, err
	}

	var items []models.ActiveOrderItem
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list active order items: %w", err)
	}

	byOrder := make(map[uuid.UUID][]models.ActiveOrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	active := make([]models.ActiveOrder, len(orders))
	for i, o := range orders {
		active[i] = models.ActiveOrder{Order: o, Items: byOrder[o.ID]}
		if active[i].Items == nil {
			active[i].Items = []models.ActiveOrderItem{}
		}
	}
	return active, nil
}
