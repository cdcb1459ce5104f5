package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qrmenu-service/internal/models"

	"github.com/google/uuid"
)

// CreateWaiterCall inserts a pending call. Duplicates per table are allowed.
func (s *Store) CreateWaiterCall(ctx context.Context, call *models.WaiterCall) error {
	query := `
		INSERT INTO waiter_calls (restaurant_id, table_id, type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		call.RestaurantID, call.TableID, call.Type, call.Status,
	).Scan(&call.ID, &call.CreatedAt)
}

// ListPendingCalls retrieves pending calls of a restaurant, newest first
func (s *Store) ListPendingCalls(ctx context.Context, restaurantID uuid.UUID) ([]models.WaiterCall, error) {
	var calls []models.WaiterCall
	err := s.db.SelectContext(ctx, &calls, `
		SELECT id, restaurant_id, table_id, type, status, created_at
		FROM waiter_calls
		WHERE restaurant_id = $1 AND status = $2
		ORDER BY created_at DESC, id`,
		restaurantID, models.CallStatusPending)
	return calls, err
}

// GetWaiterCall retrieves a call by ID
func (s *Store) GetWaiterCall(ctx context.Context, id uuid.UUID) (*models.WaiterCall, error) {
	var call models.WaiterCall
	err := s.db.GetContext(ctx, &call, `
		SELECT id, restaurant_id, table_id, type, status, created_at
		FROM waiter_calls WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("waiter call %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// CompleteWaiterCall moves a pending call to completed. changed is false
// when the call was already completed by someone else.
func (s *Store) CompleteWaiterCall(ctx context.Context, id uuid.UUID) (call *models.WaiterCall, changed bool, err error) {
	var updated models.WaiterCall
	err = s.db.GetContext(ctx, &updated, `
		UPDATE waiter_calls SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING id, restaurant_id, table_id, type, status, created_at`,
		models.CallStatusCompleted, id, models.CallStatusPending)
	if err == nil {
		return &updated, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err := s.GetWaiterCall(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
