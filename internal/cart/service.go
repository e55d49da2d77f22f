// Package cart keeps shopping carts in the persistent store and runs the
// simulated checkout. Products are looked up through the content provider,
// so prices come from the same cached catalogue the API serves.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/storage"
)

// Store key prefixes. They never collide with the cache prefix, so clearing
// the cache leaves carts and orders alone.
const (
	CartKeyPrefix  = "cart_"
	OrderKeyPrefix = "order_"
)

var (
	ErrInvalidCartID = errors.New("invalid cart id")
	ErrEmptyCart     = errors.New("cart is empty")
	// ErrInvalidCheckout is matched by every checkout validation failure.
	ErrInvalidCheckout = errors.New("invalid checkout request")
)

// ValidationError carries the field problems of a rejected checkout.
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d field(s) rejected", ErrInvalidCheckout, len(e.Problems))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCheckout
}

// ProductLookup resolves a product id. content.Provider satisfies it.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*models.Product, error)
}

type Service struct {
	store    storage.Store
	products ProductLookup
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes read-modify-write cycles on carts.
	mu sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store storage.Store, products ProductLookup, opts ...Option) *Service {
	s := &Service{
		store:    store,
		products: products,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCartID returns an id for a fresh cart. Carts are only written once
// something is added.
func NewCartID() string {
	return uuid.NewString()
}

func parseCartID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCartID, id)
	}
	return parsed.String(), nil
}

// load returns the stored cart, or an empty one if none was saved yet.
func (s *Service) load(ctx context.Context, id string) (*models.Cart, error) {
	c := &models.Cart{ID: id, Items: []models.CartItem{}}

	raw, err := s.store.Get(ctx, CartKeyPrefix+id)
	if errors.Is(err, storage.ErrNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(raw), c); err != nil {
		// A malformed cart starts over empty.
		s.logger.Warn("discarding malformed cart", "cart_id", id, "error", err)
		return &models.Cart{ID: id, Items: []models.CartItem{}}, nil
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	c.Recalculate()
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Cart) error {
	c.Recalculate()
	c.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart %s: %w", c.ID, err)
	}
	if err := s.store.Set(ctx, CartKeyPrefix+c.ID, string(data)); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", c.ID, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	id, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Add puts productID in the cart unless it is already there. Unknown
// products fail with the lookup's not found error.
func (s *Service) Add(ctx context.Context, cartID, productID string) (*models.Cart, error) {
	id, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}

	// Resolve outside the lock; the lookup may wait on the upstream limiter.
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Contains(product.ID) {
		return c, nil
	}

	c.Items = append(c.Items, models.CartItem{
		ID:    product.ID,
		Title: product.Title,
		Price: product.Price,
		Type:  product.Type,
	})
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Added item to cart", "cart_id", id, "product_id", product.ID)
	return c, nil
}

// Remove drops productID from the cart. Removing an absent item is a no-op.
func (s *Service) Remove(ctx context.Context, cartID, productID string) (*models.Cart, error) {
	id, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(c.Items) {
		return c, nil
	}
	c.Items = kept
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	id, err := parseCartID(cartID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, CartKeyPrefix+id)
}

// Checkout validates the buyer details, records an order for the cart's
// contents and empties the cart. No payment is taken.
func (s *Service) Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.Order, error) {
	clean := req.Sanitized()
	if problems := clean.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	id, err := parseCartID(clean.CartID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		ID:        uuid.NewString(),
		CartID:    id,
		Email:     clean.Email,
		Name:      clean.FirstName + " " + clean.LastName,
		Items:     c.Items,
		Total:     c.Total,
		Status:    models.OrderStatusConfirmed,
		CreatedAt: s.now().UTC(),
	}

	data, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	if err := s.store.Set(ctx, OrderKeyPrefix+order.ID, string(data)); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	if err := s.store.Delete(ctx, CartKeyPrefix+id); err != nil {
		s.logger.Warn("Failed to clear cart after checkout", "cart_id", id, "error", err)
	}

	s.logger.Info("Order placed", "order_id", order.ID, "cart_id", id, "items", len(order.Items), "total", order.Total)
	return order, nil
}

// Order returns a previously placed order.
func (s *Service) Order(ctx context.Context, orderID string) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("order %q: %w", orderID, storage.ErrNotFound)
	}
	raw, err := s.store.Get(ctx, OrderKeyPrefix+orderID)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", orderID, err)
	}
	return &order, nil
}
