package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qrmenu-service/internal/util"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway opens hosted Stripe Checkout sessions
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway authenticated with a secret key
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return NewStripeGatewayWithAPI(api)
}

// NewStripeGatewayWithAPI wraps a preconfigured client, e.g. one pointed
// at a stripe-mock backend.
func NewStripeGatewayWithAPI(api *client.API) *StripeGateway {
	return &StripeGateway{api: api, logger: util.GetLogger()}
}

// CreateCheckoutSession opens a card checkout session
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	ctx, span := util.StartSpan(ctx, "StripeGateway.CreateCheckoutSession")
	defer span.End()

	start := time.Now()
	defer func() {
		util.GatewayLatency.WithLabelValues("create_session").Observe(time.Since(start).Seconds())
	}()

	params := buildSessionParams(req)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		util.RecordError(span, err)
		g.logger.Error("Stripe checkout session failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetPaymentStatus retrieves the authoritative payment status of a session
func (g *StripeGateway) GetPaymentStatus(ctx context.Context, sessionID string) (PaymentStatus, error) {
	ctx, span := util.StartSpan(ctx, "StripeGateway.GetPaymentStatus")
	defer span.End()

	start := time.Now()
	defer func() {
		util.GatewayLatency.WithLabelValues("get_session").Observe(time.Since(start).Seconds())
	}()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		util.RecordError(span, err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch s.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid:
		return PaymentStatusPaid, nil
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		return PaymentStatusUnpaid, nil
	default:
		return PaymentStatusOther, nil
	}
}

func buildSessionParams(req *CheckoutRequest) *stripe.CheckoutSessionParams {
	currency := strings.ToLower(req.Currency)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	if req.DestinationAccount != "" {
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.DestinationAccount),
			},
		}
	}

	return params
}
