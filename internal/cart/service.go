package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrmenu-service/internal/models"
	"qrmenu-service/internal/redisclient"
	"qrmenu-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalid marks a cart the diner cannot save
var ErrInvalid = errors.New("invalid cart")

const maxLines = 50

// Store persists serialized carts. Satisfied by *redisclient.Client.
type Store interface {
	SaveCart(ctx context.Context, restaurantID uuid.UUID, cartID string, payload []byte, ttl time.Duration) error
	LoadCart(ctx context.Context, restaurantID uuid.UUID, cartID string) ([]byte, error)
	DeleteCart(ctx context.Context, restaurantID uuid.UUID, cartID string) error
}

var validate = models.NewValidator()

// Service loads and saves carts with a sliding TTL
type Service struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a cart service
func NewService(store Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl, now: time.Now, logger: util.GetLogger()}
}

// Get returns the stored cart, or an empty one if none is stored
func (s *Service) Get(ctx context.Context, restaurantID uuid.UUID, cartID string) (*Cart, error) {
	if err := validateID(cartID); err != nil {
		return nil, err
	}

	data, err := s.store.LoadCart(ctx, restaurantID, cartID)
	if errors.Is(err, redisclient.ErrCartNotFound) {
		return New(restaurantID, cartID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// unreadable carts are discarded rather than blocking the diner
		s.logger.Warn("Discarding corrupt cart", zap.String("cart_id", cartID), zap.Error(err))
		return New(restaurantID, cartID), nil
	}
	return &c, nil
}

// Replace stores items as the whole content of the cart. Lines for the
// same product and options are merged.
func (s *Service) Replace(ctx context.Context, restaurantID uuid.UUID, cartID string, items []Item) (*Cart, error) {
	if err := validateID(cartID); err != nil {
		return nil, err
	}
	if len(items) > maxLines {
		return nil, fmt.Errorf("%w: more than %d lines", ErrInvalid, maxLines)
	}
	for _, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	c := New(restaurantID, cartID)
	for _, item := range items {
		c.Add(item)
	}
	c.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.SaveCart(ctx, restaurantID, cartID, data, s.ttl); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Clear removes a cart, typically after its order was placed
func (s *Service) Clear(ctx context.Context, restaurantID uuid.UUID, cartID string) error {
	if err := validateID(cartID); err != nil {
		return err
	}
	if err := s.store.DeleteCart(ctx, restaurantID, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func validateID(cartID string) error {
	if err := validate.Var(cartID, "required,uuid"); err != nil {
		return fmt.Errorf("%w: cart id must be a uuid", ErrInvalid)
	}
	return nil
}
