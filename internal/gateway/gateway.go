// Package gateway talks to the external card payment provider. The
// provider is treated as opaque: one call opens a hosted checkout
// session, another reads back its payment status.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable wraps transport-level provider failures
var ErrUnavailable = errors.New("payment gateway unavailable")

// PaymentStatus is the provider's view of a checkout session
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusOther  PaymentStatus = "other"
)

// LineItem is one product line sent to the hosted checkout
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	ImageURL   string
}

// CheckoutRequest is everything needed to open a checkout session
type CheckoutRequest struct {
	Currency           string
	Items              []LineItem
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
	DestinationAccount string
}

// CheckoutSession is the provider's answer to a checkout request
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway is the provider contract used by payment reconciliation
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	GetPaymentStatus(ctx context.Context, sessionID string) (PaymentStatus, error)
}

// MinorUnits converts a major-unit amount to the provider's integer
// minor units, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
