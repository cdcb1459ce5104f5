package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"qrmenu-service/internal/gateway"
	"qrmenu-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	store      *fakeStore
	gateway    *fakeGateway
	locker     *fakeLocker
	publisher  *fakePublisher
	svc        *PaymentService
	restaurant *models.Restaurant
	burger     uuid.UUID
	soup       uuid.UUID
}

func newPaymentFixture(withLocker bool) *paymentFixture {
	st := newFakeStore()
	gw := newFakeGateway()
	pub := &fakePublisher{}
	r := &models.Restaurant{
		ID:               uuid.New(),
		Name:             "Kebab House",
		Slug:             "kebab-house",
		Currency:         "try",
		IsPaymentEnabled: true,
	}
	st.restaurants[r.ID] = r

	f := &paymentFixture{
		store:      st,
		gateway:    gw,
		publisher:  pub,
		restaurant: r,
		burger:     st.addProduct(r.ID, "Burger", true),
		soup:       st.addProduct(r.ID, "Lentil Soup", false),
	}

	var locker Locker
	if withLocker {
		f.locker = newFakeLocker()
		locker = f.locker
	}
	f.svc = NewPaymentService(st, gw, locker, pub, PaymentConfig{
		PublicBaseURL:   "https://menu.example/",
		DefaultCurrency: "eur",
		VerifyLockTTL:   time.Second,
	})
	return f
}

func (f *paymentFixture) checkout(t *testing.T) *CheckoutResult {
	t.Helper()
	res, err := f.svc.CreateCheckout(context.Background(), &CheckoutRequest{
		RestaurantID: f.restaurant.ID.String(),
		Items: []OrderItemRequest{
			{ProductID: f.burger.String(), Quantity: 2, Price: dec("12.50"), Name: "Burger"},
		},
	})
	require.NoError(t, err)
	return res
}

func TestCreateCheckout(t *testing.T) {
	f := newPaymentFixture(true)
	table := uuid.New()
	account := "acct_123"
	f.restaurant.StripeAccountID = &account

	res, err := f.svc.CreateCheckout(context.Background(), &CheckoutRequest{
		RestaurantID: f.restaurant.ID.String(),
		TableID:      strPtr(table.String()),
		Items: []OrderItemRequest{
			{ProductID: f.burger.String(), Quantity: 2, Price: dec("12.345"), Name: "Burger", ImageURL: strPtr("https://img.example/b.png")},
		},
	})
	require.NoError(t, err)

	order := f.store.orders[res.OrderID]
	require.NotNil(t, order)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(dec("24.69")))
	assert.Equal(t, notePaymentPending, *order.CustomerNote)
	require.NotNil(t, order.StripeSessionID)
	assert.Equal(t, res.SessionID, *order.StripeSessionID)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, "try", req.Currency)
	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(1235), req.Items[0].UnitAmount)
	assert.Equal(t, int64(2), req.Items[0].Quantity)
	assert.Equal(t, "https://img.example/b.png", req.Items[0].ImageURL)
	assert.Equal(t,
		"https://menu.example/kebab-house/payment-success?session_id={CHECKOUT_SESSION_ID}&order_id="+
			res.OrderID.String()+"&restaurant_id="+f.restaurant.ID.String(),
		req.SuccessURL)
	assert.Equal(t, "https://menu.example/kebab-house?canceled=true", req.CancelURL)
	assert.Equal(t, res.OrderID.String(), req.Metadata["orderId"])
	assert.Equal(t, f.restaurant.ID.String(), req.Metadata["restaurantId"])
	assert.Equal(t, table.String(), req.Metadata["tableId"])
	assert.Equal(t, "acct_123", req.DestinationAccount)
}

func TestCreateCheckoutPackageOrder(t *testing.T) {
	f := newPaymentFixture(true)
	f.restaurant.Currency = ""

	f.checkout(t)

	req := f.gateway.requests[0]
	assert.Equal(t, "package", req.Metadata["tableId"])
	assert.Equal(t, "eur", req.Currency)
	assert.Empty(t, req.DestinationAccount)
}

func TestCreateCheckoutPaymentNotEnabled(t *testing.T) {
	f := newPaymentFixture(true)
	f.restaurant.IsPaymentEnabled = false

	_, err := f.svc.CreateCheckout(context.Background(), &CheckoutRequest{
		RestaurantID: f.restaurant.ID.String(),
		Items:        []OrderItemRequest{{ProductID: f.burger.String(), Quantity: 1, Price: dec("10")}},
	})
	assert.True(t, errors.Is(err, ErrPaymentNotEnabled))

	_, err = f.svc.CreateCheckout(context.Background(), &CheckoutRequest{
		RestaurantID: uuid.NewString(),
		Items:        []OrderItemRequest{{ProductID: f.burger.String(), Quantity: 1, Price: dec("10")}},
	})
	assert.True(t, errors.Is(err, ErrPaymentNotEnabled))

	assert.Zero(t, f.store.orderCount())
	assert.Empty(t, f.gateway.requests)
}

func TestCreateCheckoutOutOfStock(t *testing.T) {
	f := newPaymentFixture(true)

	_, err := f.svc.CreateCheckout(context.Background(), &CheckoutRequest{
		RestaurantID: f.restaurant.ID.String(),
		Items:        []OrderItemRequest{{ProductID: f.soup.String(), Quantity: 1, Price: dec("8")}},
	})
	assert.True(t, errors.Is(err, ErrOutOfStock))
	assert.Zero(t, f.store.orderCount())
	assert.Empty(t, f.gateway.requests)
}

func TestCreateCheckoutGatewayFailureKeepsOrder(t *testing.T) {
	f := newPaymentFixture(true)
	f.gateway.createErr = gateway.ErrUnavailable

	_, err := f.svc.CreateCheckout(context.Background(), &CheckoutRequest{
		RestaurantID: f.restaurant.ID.String(),
		Items:        []OrderItemRequest{{ProductID: f.burger.String(), Quantity: 1, Price: dec("10")}},
	})
	require.Error(t, err)
	assert.Equal(t, CodeGateway, CodeOf(err))

	require.Equal(t, 1, f.store.orderCount())
	for _, o := range f.store.orders {
		assert.Equal(t, models.OrderStatusPending, o.Status)
		assert.Nil(t, o.StripeSessionID)
	}
}

func TestVerifyNotPaid(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)

	_, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPaid))

	order := f.store.orders[res.OrderID]
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Zero(t, f.store.markPaidCalls)
	assert.Empty(t, f.locker.held, "lock released")
}

func TestVerifyPaidIsIdempotent(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)
	f.gateway.markPaid(res.SessionID)

	first, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyPaid)

	order := f.store.orders[res.OrderID]
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusPreparing, order.Status)
	assert.Equal(t, notePaymentSucceeded, *order.CustomerNote)

	second, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyPaid)

	paid := f.publisher.ofType(models.EventTypeOrderPaid)
	require.Len(t, paid, 1)
	assert.Equal(t, f.restaurant.ID, paid[0].RestaurantID)
}

func TestVerifyRejectsForeignSession(t *testing.T) {
	f := newPaymentFixture(true)
	mine := f.checkout(t)
	other := f.checkout(t)
	f.gateway.markPaid(other.SessionID)

	_, err := f.svc.Verify(context.Background(), other.SessionID, mine.OrderID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDBUpdate))
	assert.Equal(t, models.PaymentStatusUnpaid, f.store.orders[mine.OrderID].PaymentStatus)
	assert.Equal(t, models.PaymentStatusUnpaid, f.store.orders[other.OrderID].PaymentStatus)
}

func TestVerifyLeavesCancelledOrderCancelled(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)
	orders := NewOrderService(f.store, f.publisher, true)

	require.NoError(t, orders.TransitionStatus(context.Background(),
		res.OrderID, f.restaurant.ID, models.OrderStatusCancelled))
	f.gateway.markPaid(res.SessionID)

	_, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	order := f.store.orders[res.OrderID]
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Empty(t, f.publisher.ofType(models.EventTypeOrderPaid))
}

func TestVerifyKeepsStatusStaffAlreadyAdvanced(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)
	orders := NewOrderService(f.store, f.publisher, true)

	ctx := context.Background()
	require.NoError(t, orders.TransitionStatus(ctx, res.OrderID, f.restaurant.ID, models.OrderStatusPreparing))
	require.NoError(t, orders.TransitionStatus(ctx, res.OrderID, f.restaurant.ID, models.OrderStatusServed))
	f.gateway.markPaid(res.SessionID)

	_, err := f.svc.Verify(ctx, res.SessionID, res.OrderID)
	require.NoError(t, err)

	order := f.store.orders[res.OrderID]
	assert.Equal(t, models.OrderStatusServed, order.Status)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)

	paid := f.publisher.ofType(models.EventTypeOrderPaid)
	require.Len(t, paid, 1)
	assert.Equal(t, string(models.OrderStatusServed), paid[0].Status)
}

func TestVerifyLockBusy(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)
	f.gateway.markPaid(res.SessionID)
	f.locker.held["verify:"+res.SessionID] = "other-request"

	_, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.Error(t, err)
	assert.Equal(t, CodeNotPaid, CodeOf(err))
	assert.Zero(t, f.gateway.lookups)

	// once the holder has recorded the payment, a busy lock re-confirms
	f.store.orders[res.OrderID].PaymentStatus = models.PaymentStatusPaid
	out, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.NoError(t, err)
	assert.True(t, out.AlreadyPaid)
}

func TestVerifyGatewayError(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)
	f.gateway.statusErr = gateway.ErrUnavailable

	_, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	assert.Equal(t, CodeGateway, CodeOf(err))
	assert.Zero(t, f.store.markPaidCalls)
}

func TestVerifyLockErrorFallsBackToScopedUpdate(t *testing.T) {
	f := newPaymentFixture(true)
	res := f.checkout(t)
	f.gateway.markPaid(res.SessionID)
	f.locker.err = errors.New("redis down")

	out, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
	require.NoError(t, err)
	assert.False(t, out.AlreadyPaid)
}

func TestVerifyValidation(t *testing.T) {
	f := newPaymentFixture(true)
	_, err := f.svc.Verify(context.Background(), "", uuid.New())
	assert.Equal(t, CodeValidation, CodeOf(err))
	_, err = f.svc.Verify(context.Background(), "cs_1", uuid.Nil)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestVerifyConcurrentMutatesOnce(t *testing.T) {
	f := newPaymentFixture(false)
	res := f.checkout(t)
	f.gateway.markPaid(res.SessionID)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Verify(context.Background(), res.SessionID, res.OrderID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, f.publisher.ofType(models.EventTypeOrderPaid), 1)
	assert.Equal(t, models.PaymentStatusPaid, f.store.orders[res.OrderID].PaymentStatus)
}
