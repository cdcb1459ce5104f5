package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrmenu-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a scoped lookup matches no row
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the readiness probe
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetRestaurant retrieves the payment configuration of a restaurant
func (s *Store) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var r models.Restaurant
	err := s.db.GetContext(ctx, &r, `
		SELECT id, name, slug, currency, is_payment_enabled, stripe_account_id
		FROM restaurants WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("restaurant %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetProductAvailability reads the availability flag of every listed
// product of a restaurant in one batch. Missing ids are simply absent
// from the result.
func (s *Store) GetProductAvailability(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) ([]models.ProductAvailability, error) {
	if len(ids) == 0 {
		return []models.ProductAvailability{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, name, is_available FROM products WHERE restaurant_id = ? AND id IN (?)",
		restaurantID, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.ProductAvailability
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// SetProductAvailability toggles is_available and returns the owning restaurant
func (s *Store) SetProductAvailability(ctx context.Context, productID uuid.UUID, available bool) (uuid.UUID, error) {
	var restaurantID uuid.UUID
	err := s.db.GetContext(ctx, &restaurantID,
		"UPDATE products SET is_available = $1 WHERE id = $2 RETURNING restaurant_id",
		available, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return restaurantID, err
}

// ListTables retrieves the tables of a restaurant
func (s *Store) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.SelectContext(ctx, &tables, `
		SELECT id, restaurant_id, name, position_x, position_y, shape, color
		FROM tables WHERE restaurant_id = $1 ORDER BY name`, restaurantID)
	return tables, err
}
