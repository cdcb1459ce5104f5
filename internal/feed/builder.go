package feed

import (
	"context"
	"fmt"
	"time"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
)

// Loader reads the three inputs of a view. Satisfied by *store.Store.
type Loader interface {
	ListTables(ctx context.Context, restaurantID uuid.UUID) ([]models.Table, error)
	ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]models.ActiveOrder, error)
	ListPendingCalls(ctx context.Context, restaurantID uuid.UUID) ([]models.WaiterCall, error)
}

// Builder loads and merges views. Poll and push refresh share it, so both
// produce identical views for identical data.
type Builder struct {
	loader Loader
	now    func() time.Time
}

// NewBuilder creates a view builder
func NewBuilder(loader Loader) *Builder {
	return &Builder{loader: loader, now: time.Now}
}

// Build loads the current state of a restaurant and merges it
func (b *Builder) Build(ctx context.Context, restaurantID uuid.UUID) (*View, error) {
	ctx, span := util.StartSpan(ctx, "Feed.Build")
	defer span.End()

	tables, err := b.loader.ListTables(ctx, restaurantID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("load tables: %w", err)
	}
	orders, err := b.loader.ListActiveOrders(ctx, restaurantID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("load active orders: %w", err)
	}
	calls, err := b.loader.ListPendingCalls(ctx, restaurantID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("load pending calls: %w", err)
	}

	return Merge(restaurantID, tables, orders, calls, b.now()), nil
}
