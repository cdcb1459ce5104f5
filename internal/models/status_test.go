package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusPreparing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusServed, false},
		{OrderStatusPending, OrderStatusPaid, false},
		{OrderStatusPreparing, OrderStatusServed, true},
		{OrderStatusPreparing, OrderStatusPending, false},
		{OrderStatusServed, OrderStatusPaid, true},
		{OrderStatusServed, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusPredecessors(t *testing.T) {
	assert.Equal(t, []OrderStatus{OrderStatusPending}, OrderStatusPreparing.Predecessors())
	assert.Equal(t, []OrderStatus{OrderStatusServed}, OrderStatusPaid.Predecessors())
	assert.Equal(t,
		[]OrderStatus{OrderStatusPending, OrderStatusPreparing, OrderStatusServed},
		OrderStatusCancelled.Predecessors())
	assert.Empty(t, OrderStatusPending.Predecessors())
}

func TestOrderStatusClassification(t *testing.T) {
	for _, s := range ActiveOrderStatuses {
		assert.True(t, s.IsActive(), s)
		assert.False(t, s.FreesTable(), s)
	}
	assert.True(t, OrderStatusPaid.FreesTable())
	assert.True(t, OrderStatusCancelled.FreesTable())
	assert.False(t, OrderStatusPaid.IsActive())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("served")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusServed, s)

	_, err = ParseOrderStatus("delivered")
	assert.Error(t, err)
	assert.False(t, OrderStatus("Served").Valid())
}

func TestOrderStatusDisplay(t *testing.T) {
	assert.Equal(t, StatusDisplay{Label: "New order", Color: "red"}, OrderStatusPending.Display())
	assert.Equal(t, "green", OrderStatusServed.Display().Color)
	assert.Equal(t, "Unknown", OrderStatus("lost").Display().Label)
}

func TestParseCallType(t *testing.T) {
	for _, raw := range []string{"waiter", "bill", "order", "other"} {
		ct, err := ParseCallType(raw)
		require.NoError(t, err)
		assert.Equal(t, CallType(raw), ct)
		assert.NotEqual(t, "Unknown", ct.Display().Label)
	}

	_, err := ParseCallType("payment")
	assert.Error(t, err)
}
