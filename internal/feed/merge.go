// Package feed builds the staff live view of a restaurant: tables with
// their active order or pending waiter call, plus everything that has no
// table. Views are rebuilt by a Refresher and streamed to subscribers.
package feed

import (
	"bytes"
	"time"

	"qrmenu-service/internal/models"

	"github.com/google/uuid"
)

// TableState is the highlight of a table on the live board
type TableState string

const (
	TableStateIdle        TableState = "idle"
	TableStateActiveOrder TableState = "has_active_order"
	TableStateCall        TableState = "has_call"
)

// TableView is one table with whatever currently needs attention there
type TableView struct {
	Table        models.Table          `json:"table"`
	State        TableState            `json:"state"`
	Order        *models.ActiveOrder   `json:"order,omitempty"`
	OrderDisplay *models.StatusDisplay `json:"order_display,omitempty"`
	Call         *models.WaiterCall    `json:"call,omitempty"`
	CallDisplay  *models.CallDisplay   `json:"call_display,omitempty"`
}

// Unassigned holds orders and calls that belong to no known table, such
// as take-away orders.
type Unassigned struct {
	Orders []models.ActiveOrder `json:"orders"`
	Calls  []models.WaiterCall  `json:"calls"`
}

// View is a point-in-time snapshot of a restaurant floor
type View struct {
	RestaurantID     uuid.UUID            `json:"restaurant_id"`
	Tables           []TableView          `json:"tables"`
	PendingCalls     []models.WaiterCall  `json:"pending_calls"`
	PendingCallCount int                  `json:"pending_call_count"`
	ActiveOrders     []models.ActiveOrder `json:"active_orders"`
	Unassigned       Unassigned           `json:"unassigned"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// Merge joins tables, active orders and pending calls into a View. It is
// pure: the same inputs always yield the same view regardless of input
// order. A call outranks an order; among several candidates for one
// table the most recently created wins, ties going to the greater id.
func Merge(restaurantID uuid.UUID, tables []models.Table, orders []models.ActiveOrder, calls []models.WaiterCall, now time.Time) *View {
	known := make(map[uuid.UUID]struct{}, len(tables))
	for _, t := range tables {
		known[t.ID] = struct{}{}
	}

	view := &View{
		RestaurantID:     restaurantID,
		Tables:           make([]TableView, 0, len(tables)),
		PendingCalls:     nonNilCalls(calls),
		PendingCallCount: len(calls),
		ActiveOrders:     nonNilOrders(orders),
		Unassigned: Unassigned{
			Orders: []models.ActiveOrder{},
			Calls:  []models.WaiterCall{},
		},
		GeneratedAt: now,
	}

	latestOrder := make(map[uuid.UUID]int)
	for i, o := range orders {
		if o.TableID == nil {
			view.Unassigned.Orders = append(view.Unassigned.Orders, o)
			continue
		}
		if _, ok := known[*o.TableID]; !ok {
			view.Unassigned.Orders = append(view.Unassigned.Orders, o)
			continue
		}
		if j, ok := latestOrder[*o.TableID]; !ok || newer(o.CreatedAt, o.ID, orders[j].CreatedAt, orders[j].ID) {
			latestOrder[*o.TableID] = i
		}
	}

	latestCall := make(map[uuid.UUID]int)
	for i, c := range calls {
		if c.TableID == nil {
			view.Unassigned.Calls = append(view.Unassigned.Calls, c)
			continue
		}
		if _, ok := known[*c.TableID]; !ok {
			view.Unassigned.Calls = append(view.Unassigned.Calls, c)
			continue
		}
		if j, ok := latestCall[*c.TableID]; !ok || newer(c.CreatedAt, c.ID, calls[j].CreatedAt, calls[j].ID) {
			latestCall[*c.TableID] = i
		}
	}

	for _, t := range tables {
		tv := TableView{Table: t, State: TableStateIdle}

		if i, ok := latestOrder[t.ID]; ok {
			order := orders[i]
			display := order.Status.Display()
			tv.Order = &order
			tv.OrderDisplay = &display
			tv.State = TableStateActiveOrder
		}
		if i, ok := latestCall[t.ID]; ok {
			call := calls[i]
			display := call.Type.Display()
			tv.Call = &call
			tv.CallDisplay = &display
			tv.State = TableStateCall
		}

		view.Tables = append(view.Tables, tv)
	}

	return view
}

// newer reports whether record a sorts after record b
func newer(aAt time.Time, aID uuid.UUID, bAt time.Time, bID uuid.UUID) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return bytes.Compare(aID[:], bID[:]) > 0
}

func nonNilCalls(calls []models.WaiterCall) []models.WaiterCall {
	if calls == nil {
		return []models.WaiterCall{}
	}
	return calls
}

func nonNilOrders(orders []models.ActiveOrder) []models.ActiveOrder {
	if orders == nil {
		return []models.ActiveOrder{}
	}
	return orders
}
