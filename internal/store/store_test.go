package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"qrmenu-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres")), mock
}

var orderRowColumns = []string{
	"id", "restaurant_id", "table_id", "total_amount", "status", "payment_status",
	"customer_note", "stripe_session_id", "created_at",
}

func TestCreateOrder(t *testing.T) {
	s, mock := newMockStore(t)
	orderID := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	order := &models.Order{
		RestaurantID:  uuid.New(),
		TotalAmount:   decimal.RequireFromString("340.00"),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(order.RestaurantID, nil, order.TotalAmount, order.Status, order.PaymentStatus, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(orderID.String(), created))

	require.NoError(t, s.CreateOrder(context.Background(), order))
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, created, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderItemsBatch(t *testing.T) {
	s, mock := newMockStore(t)
	orderID := uuid.New()

	items := []models.OrderItem{
		{OrderID: orderID, ProductID: uuid.New(), Quantity: 2, PriceAtTime: decimal.NewFromInt(150)},
		{OrderID: orderID, ProductID: uuid.New(), Quantity: 1, PriceAtTime: decimal.NewFromInt(40)},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.CreateOrderItems(context.Background(), items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByIDNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	_, err := s.GetOrderByID(context.Background(), id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateOrderStatusFromExpandsStatuses(t *testing.T) {
	s, mock := newMockStore(t)
	orderID, restaurantID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE orders SET status = $1 WHERE id = $2 AND restaurant_id = $3 AND status IN ($4, $5, $6)")).
		WithArgs(models.OrderStatusCancelled, orderID, restaurantID,
			models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusServed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := s.UpdateOrderStatusFrom(context.Background(), orderID, restaurantID,
		models.OrderStatusCancelled, models.OrderStatusCancelled.Predecessors())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOrderPaidIsScoped(t *testing.T) {
	s, mock := newMockStore(t)
	orderID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $5 AND stripe_session_id = $6 AND payment_status = $7")).
		WithArgs(models.PaymentStatusPaid, models.OrderStatusPending, models.OrderStatusPreparing,
			"Online payment succeeded", orderID, "cs_test_1", models.PaymentStatusUnpaid,
			models.OrderStatusPaid, models.OrderStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := s.MarkOrderPaid(context.Background(), orderID, "cs_test_1", "Online payment succeeded")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOrderPaidSkipsCancelledOrder(t *testing.T) {
	s, mock := newMockStore(t)
	orderID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("AND status NOT IN ($8, $9)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := s.MarkOrderPaid(context.Background(), orderID, "cs_test_1", "Online payment succeeded")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductAvailabilityScopedToRestaurant(t *testing.T) {
	s, mock := newMockStore(t)
	restaurantID := uuid.New()
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, is_available FROM products WHERE restaurant_id = $1 AND id IN ($2, $3)")).
		WithArgs(restaurantID, a, b).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_available"}).
			AddRow(a.String(), "Tea", true))

	rows, err := s.GetProductAvailability(context.Background(), restaurantID, []uuid.UUID{a, b})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a, rows[0].ID)
	assert.True(t, rows[0].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveOrdersGroupsItems(t *testing.T) {
	s, mock := newMockStore(t)
	restaurantID := uuid.New()
	first, second := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE restaurant_id = $1 AND status IN ($2, $3, $4)")).
		WithArgs(restaurantID, models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusServed).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(first.String(), restaurantID.String(), nil, "30", "pending", "unpaid", nil, nil, now).
			AddRow(second.String(), restaurantID.String(), nil, "10", "served", "unpaid", nil, nil, now.Add(-time.Minute)))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id IN ($1, $2)")).
		WithArgs(first, second).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price_at_time", "options", "product_name"}).
			AddRow(uuid.NewString(), first.String(), uuid.NewString(), 2, "15", nil, "Tea"))

	orders, err := s.ListActiveOrders(context.Background(), restaurantID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Tea", orders[0].Items[0].ProductName)
	assert.NotNil(t, orders[1].Items)
	assert.Empty(t, orders[1].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteWaiterCall(t *testing.T) {
	callColumns := []string{"id", "restaurant_id", "table_id", "type", "status", "created_at"}

	t.Run("pending call changes", func(t *testing.T) {
		s, mock := newMockStore(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE waiter_calls SET status = $1")).
			WithArgs(models.CallStatusCompleted, id, models.CallStatusPending).
			WillReturnRows(sqlmock.NewRows(callColumns).
				AddRow(id.String(), uuid.NewString(), nil, "bill", "completed", time.Now()))

		call, changed, err := s.CompleteWaiterCall(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, models.CallStatusCompleted, call.Status)
	})

	t.Run("already completed is unchanged", func(t *testing.T) {
		s, mock := newMockStore(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE waiter_calls SET status = $1")).
			WillReturnRows(sqlmock.NewRows(callColumns))
		mock.ExpectQuery(regexp.QuoteMeta("FROM waiter_calls WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(callColumns).
				AddRow(id.String(), uuid.NewString(), nil, "waiter", "completed", time.Now()))

		call, changed, err := s.CompleteWaiterCall(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, id, call.ID)
	})

	t.Run("unknown call", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE waiter_calls SET status = $1")).
			WillReturnRows(sqlmock.NewRows(callColumns))
		mock.ExpectQuery(regexp.QuoteMeta("FROM waiter_calls WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(callColumns))

		_, _, err := s.CompleteWaiterCall(context.Background(), uuid.New())
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestSetProductAvailabilityNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products SET is_available = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"restaurant_id"}))

	_, err := s.SetProductAvailability(context.Background(), uuid.New(), false)
	assert.True(t, errors.Is(err, ErrNotFound))
}
