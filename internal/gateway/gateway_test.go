package gateway

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"12.34", 1234},
		{"12.345", 1235},
		{"12.344", 1234},
		{"0.005", 1},
		{"100", 10000},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestBuildSessionParams(t *testing.T) {
	params := buildSessionParams(&CheckoutRequest{
		Currency: "TRY",
		Items: []LineItem{
			{Name: "Tea", UnitAmount: 1500, Quantity: 2, ImageURL: "https://cdn.example/tea.png"},
			{Name: "Cake", UnitAmount: 4000, Quantity: 1},
		},
		SuccessURL:         "https://menu.example/cafe/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          "https://menu.example/cafe?canceled=true",
		Metadata:           map[string]string{"orderId": "o-1", "tableId": "package"},
		DestinationAccount: "acct_123",
	})

	assert.Equal(t, "payment", *params.Mode)
	require.Len(t, params.LineItems, 2)

	tea := params.LineItems[0]
	assert.Equal(t, "try", *tea.PriceData.Currency)
	assert.Equal(t, int64(1500), *tea.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *tea.Quantity)
	require.Len(t, tea.PriceData.ProductData.Images, 1)
	assert.Equal(t, "https://cdn.example/tea.png", *tea.PriceData.ProductData.Images[0])

	assert.Empty(t, params.LineItems[1].PriceData.ProductData.Images)

	assert.Equal(t, "o-1", params.Metadata["orderId"])
	assert.Equal(t, "package", params.Metadata["tableId"])
	assert.Contains(t, *params.SuccessURL, "{CHECKOUT_SESSION_ID}")

	require.NotNil(t, params.PaymentIntentData)
	assert.Equal(t, "acct_123", *params.PaymentIntentData.TransferData.Destination)
}

func TestBuildSessionParamsWithoutConnectedAccount(t *testing.T) {
	params := buildSessionParams(&CheckoutRequest{Currency: "eur"})
	assert.Nil(t, params.PaymentIntentData)
	assert.Empty(t, params.LineItems)
}
