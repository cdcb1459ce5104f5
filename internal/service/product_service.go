package service

import (
	"context"
	"errors"
	"strconv"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/store"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductStore is the availability write used by staff
type ProductStore interface {
	SetProductAvailability(ctx context.Context, productID uuid.UUID, available bool) (uuid.UUID, error)
}

// ProductService toggles whether a product can be ordered
type ProductService struct {
	store          ProductStore
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store ProductStore, eventPublisher EventPublisher) *ProductService {
	return &ProductService{store: store, eventPublisher: eventPublisher, logger: util.GetLogger()}
}

// SetAvailability flips the availability flag the order gate reads
func (ps *ProductService) SetAvailability(ctx context.Context, productID uuid.UUID, available bool) error {
	ctx, span := util.StartSpan(ctx, "ProductService.SetAvailability")
	defer span.End()

	restaurantID, err := ps.store.SetProductAvailability(ctx, productID, available)
	if errors.Is(err, store.ErrNotFound) {
		return newError(CodeNotFound, "Product not found.", err)
	}
	if err != nil {
		util.RecordError(span, err)
		return newError(CodeDBUpdate, "Product could not be updated.", err)
	}

	ps.logger.Info("Product availability changed",
		zap.String("product_id", productID.String()),
		zap.Bool("available", available))

	publish(ctx, ps.eventPublisher, ps.logger, &models.RestaurantEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeProductAvailability),
		RestaurantID: restaurantID,
		ProductID:    &productID,
		Status:       strconv.FormatBool(available),
	})
	return nil
}
