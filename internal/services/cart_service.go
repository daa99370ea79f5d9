package services

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopease/storefront/internal/domain"
)

// ErrCartEmpty indicates checkout was attempted on an empty cart.
var ErrCartEmpty = errors.New("cart service: cart is empty")

const addedToCartMessage = "Added to cart"

// CartServiceDeps wires the optional collaborators of the cart store.
type CartServiceDeps struct {
	Notifier Notifier
	Clock    func() time.Time
	Logger   *zap.Logger
}

// CartService owns the in-memory cart state for one browsing context: the
// ordered line items and the open/closed flag of the cart panel. All
// mutations go through its methods; the internal slice is never shared.
// Cart contents are not persisted across reloads.
type CartService struct {
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger

	mu    sync.Mutex
	items []domain.CartLineItem
	open  bool
}

// NewCartService constructs an empty, closed cart.
func NewCartService(deps CartServiceDeps) *CartService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		notifier: deps.Notifier,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
		items:    []domain.CartLineItem{},
	}
}

// AddToCart merges quantity into the existing line item for the product, or
// appends a new line preserving insertion order. The unit price is captured
// at add time (offer price when one applies) and is not re-read from the
// catalog later. Quantity below 1 is clamped to 1.
func (s *CartService) AddToCart(product domain.Product, quantity int) {
	id := domain.NormalizeProductID(product.ID.String())
	if id == "" {
		s.logger.Warn("add to cart ignored: product has no id", zap.String("title", product.Title))
		return
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx >= 0 {
		s.items[idx].Quantity += quantity
	} else {
		s.items = append(s.items, domain.CartLineItem{
			ProductID: id,
			Title:     product.Title,
			Image:     product.Image,
			UnitPrice: product.EffectivePrice(),
			Quantity:  quantity,
		})
	}
	s.mu.Unlock()

	s.logger.Debug("cart item added",
		zap.String("product_id", id.String()),
		zap.Int("quantity", quantity),
	)
	if s.notifier != nil {
		s.notifier.Notify(addedToCartMessage)
	}
}

// RemoveFromCart drops the line item with the given id. Removing an absent
// id is a no-op, not an error.
func (s *CartService) RemoveFromCart(id domain.ProductID) {
	id = domain.NormalizeProductID(id.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
}

// UpdateQuantity sets the quantity for a line item. Values below 1 are
// coerced to 1; the store never auto-removes a line on zero. Unknown ids are
// a no-op.
func (s *CartService) UpdateQuantity(id domain.ProductID, quantity int) {
	id = domain.NormalizeProductID(id.String())
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return
	}
	s.items[idx].Quantity = quantity
}

// ClearCart empties the line items. The visibility flag is untouched.
func (s *CartService) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
}

// ToggleVisibility flips the cart panel between open and closed and returns
// the new state. Item mutations never change visibility.
func (s *CartService) ToggleVisibility() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = !s.open
	return s.open
}

// IsOpen reports whether the cart panel is open.
func (s *CartService) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.open
}

// Items returns a snapshot of the line items in insertion order.
func (s *CartService) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the number of distinct line items (the header badge value).
func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Total derives the running total from the stored unit prices. A product's
// catalog price changing after add time does not affect lines already in the
// cart.
func (s *CartService) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return totalOf(s.items)
}

// Checkout hands off the computed total, clears the cart and closes the
// panel. An empty cart cannot be checked out.
func (s *CartService) Checkout() (float64, error) {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return 0, ErrCartEmpty
	}
	total := totalOf(s.items)
	count := len(s.items)
	s.items = s.items[:0]
	s.open = false
	s.mu.Unlock()

	s.logger.Info("checkout handoff",
		zap.Float64("total", total),
		zap.Int("line_items", count),
		zap.Time("at", s.now()),
	)
	return total, nil
}

// indexOfLocked must be called with s.mu held.
func (s *CartService) indexOfLocked(id domain.ProductID) int {
	for i, item := range s.items {
		if item.ProductID == id {
			return i
		}
	}
	return -1
}

func totalOf(items []domain.CartLineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}
