package service

import (
	"context"
	"errors"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/store"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WaiterCallStore defines the DB methods for waiter calls
type WaiterCallStore interface {
	CreateWaiterCall(ctx context.Context, call *models.WaiterCall) error
	ListPendingCalls(ctx context.Context, restaurantID uuid.UUID) ([]models.WaiterCall, error)
	CompleteWaiterCall(ctx context.Context, id uuid.UUID) (*models.WaiterCall, bool, error)
}

// WaiterCallRequest is a diner asking for staff attention
type WaiterCallRequest struct {
	RestaurantID string  `json:"restaurant_id" validate:"required,uuid"`
	TableID      *string `json:"table_id,omitempty"`
	Type         string  `json:"type" validate:"required"`
}

// WaiterService handles waiter-call requests and their completion
type WaiterService struct {
	store          WaiterCallStore
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewWaiterService creates a new waiter service
func NewWaiterService(store WaiterCallStore, eventPublisher EventPublisher) *WaiterService {
	return &WaiterService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RequestWaiter records a pending call. Repeated calls from one table
// are kept as separate rows.
func (ws *WaiterService) RequestWaiter(ctx context.Context, req *WaiterCallRequest) (*models.WaiterCall, error) {
	ctx, span := util.StartSpan(ctx, "WaiterService.RequestWaiter")
	defer span.End()

	if req == nil {
		return nil, newError(CodeValidation, "Invalid waiter call.", nil)
	}
	if err := validate.Struct(req); err != nil {
		return nil, newError(CodeValidation, "Invalid waiter call.", err)
	}
	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		return nil, newError(CodeValidation, "Invalid waiter call.", err)
	}
	callType, err := models.ParseCallType(req.Type)
	if err != nil {
		return nil, newError(CodeValidation, "Unknown call type.", err)
	}
	tableID, err := parseTableID(req.TableID)
	if err != nil {
		return nil, err
	}

	call := &models.WaiterCall{
		RestaurantID: restaurantID,
		TableID:      tableID,
		Type:         callType,
		Status:       models.CallStatusPending,
	}
	if err := ws.store.CreateWaiterCall(ctx, call); err != nil {
		util.RecordError(span, err)
		ws.logger.Error("Failed to create waiter call", zap.Error(err))
		return nil, newError(CodeDBInsert, "Waiter could not be called.", err)
	}

	util.WaiterCallsTotal.WithLabelValues(string(callType)).Inc()

	publish(ctx, ws.eventPublisher, ws.logger, &models.RestaurantEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeWaiterCallCreated),
		RestaurantID: restaurantID,
		CallID:       &call.ID,
		TableID:      tableID,
		Status:       string(call.Status),
	})

	return call, nil
}

// ListPending returns pending calls of a restaurant, newest first
func (ws *WaiterService) ListPending(ctx context.Context, restaurantID uuid.UUID) ([]models.WaiterCall, error) {
	calls, err := ws.store.ListPendingCalls(ctx, restaurantID)
	if err != nil {
		return nil, newError(CodeInternal, "Waiter calls could not be loaded.", err)
	}
	return calls, nil
}

// CompleteCall marks a call completed. Completing an already completed
// call succeeds without emitting another event.
func (ws *WaiterService) CompleteCall(ctx context.Context, callID uuid.UUID) (*models.WaiterCall, error) {
	ctx, span := util.StartSpan(ctx, "WaiterService.CompleteCall")
	defer span.End()

	call, changed, err := ws.store.CompleteWaiterCall(ctx, callID)
	if errors.Is(err, store.ErrNotFound) {
		util.WaiterCallsCompletedTotal.WithLabelValues("not_found").Inc()
		return nil, newError(CodeNotFound, "Waiter call not found.", err)
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, newError(CodeDBUpdate, "Waiter call could not be completed.", err)
	}

	if !changed {
		util.WaiterCallsCompletedTotal.WithLabelValues("noop").Inc()
		return call, nil
	}

	util.WaiterCallsCompletedTotal.WithLabelValues("completed").Inc()
	publish(ctx, ws.eventPublisher, ws.logger, &models.RestaurantEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeWaiterCallCompleted),
		RestaurantID: call.RestaurantID,
		CallID:       &call.ID,
		TableID:      call.TableID,
		Status:       string(call.Status),
	})
	return call, nil
}
