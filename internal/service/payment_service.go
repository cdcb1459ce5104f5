package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"qrmenu-service/internal/gateway"
	"qrmenu-service/internal/models"
	"qrmenu-service/internal/store"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	notePaymentPending   = "Online payment pending"
	notePaymentSucceeded = "Online payment succeeded"

	packageMetadataValue = "package"
)

// PaymentStore defines the DB methods payment reconciliation needs.
// Satisfied by *store.Store.
type PaymentStore interface {
	AvailabilityReader
	orderWriter
	GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	SetOrderSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, sessionID, note string) (int64, error)
	GetOrderBySession(ctx context.Context, orderID uuid.UUID, sessionID string) (*models.Order, error)
}

// Locker serializes concurrent verifications of one checkout session.
// Satisfied by *redisclient.Client.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// CheckoutRequest is a diner's cart sent to online payment. Totals are
// always computed from the lines.
type CheckoutRequest struct {
	RestaurantID string             `json:"restaurant_id" validate:"required,uuid"`
	TableID      *string            `json:"table_id,omitempty"`
	Items        []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Currency     string             `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

// CheckoutResult is what the diner needs to follow the redirect
type CheckoutResult struct {
	OrderID   uuid.UUID `json:"order_id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}

// VerifyResult reports a confirmed payment
type VerifyResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	AlreadyPaid bool      `json:"already_paid"`
}

// PaymentConfig holds the knobs of payment reconciliation
type PaymentConfig struct {
	PublicBaseURL   string
	DefaultCurrency string
	VerifyLockTTL   time.Duration
}

// PaymentService creates pending orders ahead of the gateway redirect
// and confirms them when the diner returns.
type PaymentService struct {
	store          PaymentStore
	gateway        gateway.Gateway
	locker         Locker
	gate           *AvailabilityGate
	saga           *orderSaga
	eventPublisher EventPublisher
	cfg            PaymentConfig
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service. locker may be nil,
// in which case verification relies on the scoped update alone.
func NewPaymentService(store PaymentStore, gw gateway.Gateway, locker Locker, eventPublisher EventPublisher, cfg PaymentConfig) *PaymentService {
	if cfg.VerifyLockTTL <= 0 {
		cfg.VerifyLockTTL = 10 * time.Second
	}
	logger := util.GetLogger()
	return &PaymentService{
		store:          store,
		gateway:        gw,
		locker:         locker,
		gate:           NewAvailabilityGate(store),
		saga:           &orderSaga{store: store, logger: logger},
		eventPublisher: eventPublisher,
		cfg:            cfg,
		logger:         logger,
	}
}

// CreateCheckout persists a pending order and opens a gateway session
// for it. A gateway failure leaves the pending order in place.
func (ps *PaymentService) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateCheckout")
	defer span.End()

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

	restaurant, err := ps.store.GetRestaurant(ctx, restaurantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(CodePaymentNotEnabled, "Online payment is not available for this restaurant.", err)
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, newError(CodeInternal, "Restaurant could not be loaded.", err)
	}
	if !restaurant.IsPaymentEnabled {
		util.CheckoutSessionsTotal.WithLabelValues("not_enabled").Inc()
		return nil, newError(CodePaymentNotEnabled, "Online payment is not available for this restaurant.", nil)
	}

	tableID, err := parseTableID(req.TableID)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(req.Items)
	if err != nil {
		return nil, err
	}
	note := notePaymentPending
	in := &orderInput{restaurantID: restaurantID, tableID: tableID, lines: lines, note: &note}
	in.total = in.lineSum()

	if err := ps.gate.Check(ctx, restaurantID, in.productIDs()); err != nil {
		util.OrdersRejectedTotal.WithLabelValues(string(CodeOf(err))).Inc()
		return nil, err
	}

	order := &models.Order{
		RestaurantID:  restaurantID,
		TableID:       tableID,
		TotalAmount:   in.total,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CustomerNote:  in.note,
	}
	if err := ps.saga.run(ctx, order, in.orderItems(uuid.Nil)); err != nil {
		util.RecordError(span, err)
		util.OrdersRejectedTotal.WithLabelValues(string(CodeOf(err))).Inc()
		return nil, err
	}
	util.OrdersCreatedTotal.WithLabelValues("online").Inc()

	session, err := ps.gateway.CreateCheckoutSession(ctx, ps.checkoutRequest(restaurant, order, in, req.Currency))
	if err != nil {
		util.RecordError(span, err)
		util.CheckoutSessionsTotal.WithLabelValues("gateway_error").Inc()
		ps.logger.Error("Checkout session failed, pending order kept",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, newError(CodeGateway, "Payment could not be started, please try again.", err)
	}

	if err := ps.store.SetOrderSession(ctx, order.ID, session.ID); err != nil {
		util.RecordError(span, err)
		util.CheckoutSessionsTotal.WithLabelValues("db_error").Inc()
		return nil, newError(CodeDBUpdate, "Payment session could not be saved.", err)
	}

	util.CheckoutSessionsTotal.WithLabelValues("created").Inc()
	ps.logger.Info("Checkout session created",
		zap.String("order_id", order.ID.String()),
		zap.String("session_id", session.ID),
		zap.String("total", order.TotalAmount.String()))

	return &CheckoutResult{OrderID: order.ID, SessionID: session.ID, URL: session.URL}, nil
}

func (ps *PaymentService) checkoutRequest(r *models.Restaurant, order *models.Order, in *orderInput, currency string) *gateway.CheckoutRequest {
	if currency == "" {
		currency = r.Currency
	}
	if currency == "" {
		currency = ps.cfg.DefaultCurrency
	}

	items := make([]gateway.LineItem, len(in.lines))
	for i, line := range in.lines {
		name := line.name
		if name == "" {
			name = "Menu item"
		}
		item := gateway.LineItem{
			Name:       name,
			UnitAmount: gateway.MinorUnits(line.price),
			Quantity:   int64(line.quantity),
		}
		if line.imageURL != nil {
			item.ImageURL = *line.imageURL
		}
		items[i] = item
	}

	tableMeta := packageMetadataValue
	if order.TableID != nil {
		tableMeta = order.TableID.String()
	}

	base := strings.TrimRight(ps.cfg.PublicBaseURL, "/")
	success := url.Values{}
	success.Set("order_id", order.ID.String())
	success.Set("restaurant_id", r.ID.String())

	req := &gateway.CheckoutRequest{
		Currency: currency,
		Items:    items,
		// the session placeholder is substituted by the gateway and must stay unescaped
		SuccessURL: fmt.Sprintf("%s/%s/payment-success?session_id={CHECKOUT_SESSION_ID}&%s", base, r.Slug, success.Encode()),
		CancelURL:  fmt.Sprintf("%s/%s?canceled=true", base, r.Slug),
		Metadata: map[string]string{
			"orderId":      order.ID.String(),
			"restaurantId": r.ID.String(),
			"tableId":      tableMeta,
		},
	}
	if r.StripeAccountID != nil {
		req.DestinationAccount = *r.StripeAccountID
	}
	return req
}

// Verify confirms a checkout session against the gateway and marks its
// order paid. Repeated or concurrent calls for one session mutate the
// order at most once.
func (ps *PaymentService) Verify(ctx context.Context, sessionID string, orderID uuid.UUID) (*VerifyResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Verify")
	defer span.End()

	if sessionID == "" || orderID == uuid.Nil {
		return nil, newError(CodeValidation, "Session and order are required.", nil)
	}

	if ps.locker != nil {
		lockKey := "verify:" + sessionID
		token, ok, err := ps.locker.AcquireLock(ctx, lockKey, ps.cfg.VerifyLockTTL)
		switch {
		case err != nil:
			ps.logger.Warn("Verify lock unavailable, relying on scoped update",
				zap.String("session_id", sessionID),
				zap.Error(err))
		case !ok:
			util.PaymentVerificationsTotal.WithLabelValues("busy").Inc()
			return ps.reconfirm(ctx, orderID, sessionID,
				newError(CodeNotPaid, "Payment verification is in progress, please retry.", nil))
		default:
			defer func() {
				if err := ps.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
					ps.logger.Warn("Failed to release verify lock", zap.String("session_id", sessionID), zap.Error(err))
				}
			}()
		}
	}

	status, err := ps.gateway.GetPaymentStatus(ctx, sessionID)
	if err != nil {
		util.RecordError(span, err)
		util.PaymentVerificationsTotal.WithLabelValues("gateway_error").Inc()
		return nil, newError(CodeGateway, "Payment status could not be retrieved.", err)
	}
	if status != gateway.PaymentStatusPaid {
		util.PaymentVerificationsTotal.WithLabelValues("not_paid").Inc()
		return nil, newError(CodeNotPaid, "Payment has not been completed.", nil)
	}

	n, err := ps.store.MarkOrderPaid(ctx, orderID, sessionID, notePaymentSucceeded)
	if err != nil {
		util.RecordError(span, err)
		util.PaymentVerificationsTotal.WithLabelValues("db_error").Inc()
		return nil, newError(CodeDBUpdate, "Payment could not be recorded.", err)
	}
	if n == 0 {
		return ps.reconfirm(ctx, orderID, sessionID,
			newError(CodeDBUpdate, "Payment could not be recorded.", nil))
	}

	util.PaymentVerificationsTotal.WithLabelValues("paid").Inc()
	ps.logger.Info("Order paid online",
		zap.String("order_id", orderID.String()),
		zap.String("session_id", sessionID))

	event := &models.RestaurantEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderPaid),
		OrderID:   &orderID,
	}
	if order, err := ps.store.GetOrderBySession(ctx, orderID, sessionID); err == nil {
		event.RestaurantID = order.RestaurantID
		event.TableID = order.TableID
		event.Status = string(order.Status)
		publish(ctx, ps.eventPublisher, ps.logger, event)
	} else {
		ps.logger.Warn("Paid order could not be re-read for its event",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}

	return &VerifyResult{OrderID: orderID}, nil
}

// reconfirm reads the order scoped by session. An order that is already
// paid is reported as success and one closed before the payment landed
// as an invalid transition; otherwise fallback is returned. A session
// that does not belong to the order is an update that matched nothing.
func (ps *PaymentService) reconfirm(ctx context.Context, orderID uuid.UUID, sessionID string, fallback *Error) (*VerifyResult, error) {
	order, err := ps.store.GetOrderBySession(ctx, orderID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		util.PaymentVerificationsTotal.WithLabelValues("session_mismatch").Inc()
		return nil, newError(CodeDBUpdate, "Payment could not be recorded for this order.", err)
	}
	if err != nil {
		return nil, newError(CodeDBUpdate, "Payment could not be recorded.", err)
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		util.PaymentVerificationsTotal.WithLabelValues("already_paid").Inc()
		return &VerifyResult{OrderID: orderID, AlreadyPaid: true}, nil
	}
	if order.Status.IsTerminal() {
		util.PaymentVerificationsTotal.WithLabelValues("order_closed").Inc()
		ps.logger.Warn("Payment confirmed for a closed order",
			zap.String("order_id", orderID.String()),
			zap.String("session_id", sessionID),
			zap.String("status", string(order.Status)))
		return nil, newError(CodeInvalidTransition,
			fmt.Sprintf("Order is already %s and cannot accept this payment.", order.Status), nil)
	}
	return nil, fallback
}
