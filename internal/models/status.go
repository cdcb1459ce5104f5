package models

import "fmt"

// OrderStatus is the kitchen/service lifecycle of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ActiveOrderStatuses are the statuses shown on the live board
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusServed,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusServed, OrderStatusCancelled},
	OrderStatusServed:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      nil,
	OrderStatusCancelled: nil,
}

// ParseOrderStatus converts a raw value into a known status
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// IsActive reports whether s keeps a table occupied
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusPreparing || s == OrderStatusServed
}

// FreesTable reports whether moving into s releases the table
func (s OrderStatus) FreesTable() bool {
	return s.IsTerminal()
}

// CanTransitionTo reports whether next is a legal successor of s
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Predecessors returns every status that may legally move to s
func (s OrderStatus) Predecessors() []OrderStatus {
	var from []OrderStatus
	for _, candidate := range []OrderStatus{OrderStatusPending, OrderStatusPreparing, OrderStatusServed} {
		if candidate.CanTransitionTo(s) {
			from = append(from, candidate)
		}
	}
	return from
}

// StatusDisplay is the board label and color for a status
type StatusDisplay struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Display returns the board metadata for s
func (s OrderStatus) Display() StatusDisplay {
	switch s {
	case OrderStatusPending:
		return StatusDisplay{Label: "New order", Color: "red"}
	case OrderStatusPreparing:
		return StatusDisplay{Label: "Preparing", Color: "orange"}
	case OrderStatusServed:
		return StatusDisplay{Label: "Served", Color: "green"}
	case OrderStatusPaid:
		return StatusDisplay{Label: "Paid", Color: "gray"}
	case OrderStatusCancelled:
		return StatusDisplay{Label: "Cancelled", Color: "lightgray"}
	default:
		return StatusDisplay{Label: "Unknown", Color: "black"}
	}
}

// PaymentStatus is the payment axis of an order, independent of OrderStatus
type PaymentStatus string

// Payment statuses
const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	}
	return false
}

// CallType is the kind of a waiter call
type CallType string

// Waiter call types
const (
	CallTypeWaiter CallType = "waiter"
	CallTypeBill   CallType = "bill"
	CallTypeOrder  CallType = "order"
	CallTypeOther  CallType = "other"
)

// ParseCallType converts a raw value into a known call type
func ParseCallType(s string) (CallType, error) {
	ct := CallType(s)
	if !ct.Valid() {
		return "", fmt.Errorf("unknown call type %q", s)
	}
	return ct, nil
}

// Valid reports whether t is a known call type
func (t CallType) Valid() bool {
	switch t {
	case CallTypeWaiter, CallTypeBill, CallTypeOrder, CallTypeOther:
		return true
	}
	return false
}

// CallDisplay is the board label and icon for a call type
type CallDisplay struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Display returns the board metadata for t
func (t CallType) Display() CallDisplay {
	switch t {
	case CallTypeWaiter:
		return CallDisplay{Label: "Wants a waiter", Icon: "👋"}
	case CallTypeBill:
		return CallDisplay{Label: "Wants the bill", Icon: "🧾"}
	case CallTypeOrder:
		return CallDisplay{Label: "Ready to order", Icon: "🍽️"}
	case CallTypeOther:
		return CallDisplay{Label: "Needs help", Icon: "❓"}
	default:
		return CallDisplay{Label: "Unknown", Icon: "❓"}
	}
}

// CallStatus is the lifecycle of a waiter call
type CallStatus string

// Waiter call statuses
const (
	CallStatusPending   CallStatus = "pending"
	CallStatusCompleted CallStatus = "completed"
)
