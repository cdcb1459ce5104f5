package service

import (
	"context"
	"fmt"
	"time"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
)

// AvailabilityReader is the batch read the availability gate needs
type AvailabilityReader interface {
	GetProductAvailability(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]models.ProductAvailability, error)
}

// AvailabilityGate rejects orders that reference missing or unavailable
// products. It is a binary gate; no stock is decremented.
type AvailabilityGate struct {
	reader AvailabilityReader
}

// NewAvailabilityGate creates a new availability gate
func NewAvailabilityGate(reader AvailabilityReader) *AvailabilityGate {
	return &AvailabilityGate{reader: reader}
}

// Check reads all requested products in one batch and walks them in
// request order, returning the first missing or unavailable product.
func (g *AvailabilityGate) Check(ctx context.Context, restaurantID uuid.UUID, productIDs []uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "AvailabilityGate.Check")
	defer span.End()

	start := time.Now()
	defer func() {
		util.AvailabilityCheckLatency.Observe(time.Since(start).Seconds())
	}()

	distinct := make([]uuid.UUID, 0, len(productIDs))
	seen := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	rows, err := g.reader.GetProductAvailability(ctx, restaurantID, distinct)
	if err != nil {
		util.RecordError(span, err)
		return newError(CodeStockCheck, "Product availability could not be checked.", err)
	}

	byID := make(map[uuid.UUID]models.ProductAvailability, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	for _, id := range productIDs {
		product, ok := byID[id]
		if !ok {
			return newError(CodeProductNotFound, fmt.Sprintf("Product not found: %s", id), nil)
		}
		if !product.IsAvailable {
			return newError(CodeOutOfStock, fmt.Sprintf("%s is currently sold out.", product.Name), nil)
		}
	}
	return nil
}
