// Package cart holds the shopper's cart as one aggregate that every widget writes through.
package cart

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/pricing"
	"finitefield.org/elevates-web/internal/quantity"
)

// ErrInvalidInput indicates the caller supplied an unusable line.
var ErrInvalidInput = errors.New("cart: invalid input")

// ErrItemNotFound indicates the line id is not in the cart.
var ErrItemNotFound = errors.New("cart: item not found")

// Listener receives upward notifications after a change is applied.
type Listener struct {
	OnQuantityChange func(itemID string, qty int)
	OnRemove         func(itemID string)
}

// Deps wires optional collaborators. Zero values get sensible defaults.
type Deps struct {
	Clock       func() time.Time
	IDGenerator func() string
	Logger      *zap.Logger
}

// Store is a mutex-guarded cart. Line order is insertion order.
type Store struct {
	newID  func() string
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	lines     []pricing.LineItem
	updatedAt time.Time
	listeners []Listener
}

// NewStore constructs an empty cart.
func NewStore(deps Deps) *Store {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		newID:  idGen,
		now:    func() time.Time { return now().UTC() },
		logger: logger,
	}
}

// Subscribe registers a listener.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// AddItemInput describes a product variant being added.
type AddItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Variant   string
	Color     string
	ImageURL  string
}

func (in AddItemInput) normalize() (AddItemInput, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Name = strings.TrimSpace(in.Name)
	in.Variant = strings.TrimSpace(in.Variant)
	in.Color = strings.TrimSpace(in.Color)
	if in.ProductID == "" {
		return in, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if in.UnitPrice.IsNegative() {
		return in, fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}
	return in, nil
}

func sameVariant(line pricing.LineItem, in AddItemInput) bool {
	return line.ProductID == in.ProductID && line.Variant == in.Variant && line.Color == in.Color
}

// AddItem adds quantity of a variant, merging into an existing line for the same variant.
func (s *Store) AddItem(in AddItemInput) (pricing.LineItem, error) {
	in, err := in.normalize()
	if err != nil {
		return pricing.LineItem{}, err
	}
	if in.Quantity < 1 {
		return pricing.LineItem{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	s.mu.Lock()
	for i := range s.lines {
		if sameVariant(s.lines[i], in) {
			s.lines[i].Quantity += in.Quantity
			line := s.lines[i]
			s.touch()
			s.mu.Unlock()
			s.logger.Debug("cart line merged", zap.String("item_id", line.ID), zap.Int("quantity", line.Quantity))
			s.emitQuantity(line.ID, line.Quantity)
			return line, nil
		}
	}
	line := pricing.LineItem{
		ID:        s.newID(),
		ProductID: in.ProductID,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
		Quantity:  in.Quantity,
		Variant:   in.Variant,
		Color:     in.Color,
		ImageURL:  in.ImageURL,
	}
	s.lines = append(s.lines, line)
	s.touch()
	s.mu.Unlock()

	s.logger.Debug("cart line added", zap.String("item_id", line.ID), zap.String("product_id", line.ProductID), zap.Int("quantity", line.Quantity))
	s.emitQuantity(line.ID, line.Quantity)
	return line, nil
}

// Put sets the absolute quantity of a variant, creating the line if needed.
// A quantity of zero or less removes the line. It reports the line and whether it still exists.
func (s *Store) Put(in AddItemInput) (pricing.LineItem, bool, error) {
	qty := in.Quantity
	return s.Step(in, func(int) int { return qty })
}

// Step reads the variant's current quantity (0 when absent) and stores next(current),
// creating or removing the line as needed. The read and the write happen under one lock,
// so concurrent steps on the same variant never lose an update. next must not call back
// into the store.
func (s *Store) Step(in AddItemInput, next func(current int) int) (pricing.LineItem, bool, error) {
	in, err := in.normalize()
	if err != nil {
		return pricing.LineItem{}, false, err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.lines {
		if sameVariant(s.lines[i], in) {
			idx = i
			break
		}
	}
	before := 0
	if idx >= 0 {
		before = s.lines[idx].Quantity
	}
	after := next(before)

	switch {
	case after == before:
		var line pricing.LineItem
		if idx >= 0 {
			line = s.lines[idx]
		}
		s.mu.Unlock()
		return line, idx >= 0, nil
	case after <= 0:
		if idx < 0 {
			s.mu.Unlock()
			return pricing.LineItem{}, false, nil
		}
		removed := s.lines[idx]
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
		s.touch()
		s.mu.Unlock()
		s.emitRemove(removed.ID)
		return pricing.LineItem{}, false, nil
	case idx < 0:
		line := pricing.LineItem{
			ID:        s.newID(),
			ProductID: in.ProductID,
			Name:      in.Name,
			UnitPrice: in.UnitPrice,
			Quantity:  after,
			Variant:   in.Variant,
			Color:     in.Color,
			ImageURL:  in.ImageURL,
		}
		s.lines = append(s.lines, line)
		s.touch()
		s.mu.Unlock()
		s.logger.Debug("cart line added", zap.String("item_id", line.ID), zap.String("product_id", line.ProductID), zap.Int("quantity", line.Quantity))
		s.emitQuantity(line.ID, line.Quantity)
		return line, true, nil
	default:
		s.lines[idx].Quantity = after
		line := s.lines[idx]
		s.touch()
		s.mu.Unlock()
		s.emitQuantity(line.ID, after)
		return line, true, nil
	}
}

// Find returns the line for a variant.
func (s *Store) Find(productID, variant, color string) (pricing.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.lines {
		if line.ProductID == productID && line.Variant == variant && line.Color == color {
			return line, true
		}
	}
	return pricing.LineItem{}, false
}

// Get returns a line by id.
func (s *Store) Get(itemID string) (pricing.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(itemID)
	if idx < 0 {
		return pricing.LineItem{}, ErrItemNotFound
	}
	return s.lines[idx], nil
}

// Increment raises a line by one; cart lines are uncapped.
func (s *Store) Increment(itemID string) (pricing.LineItem, error) {
	return s.update(itemID, func(current int) int {
		return quantity.Increment(current, quantity.CartItemPolicy.Max)
	})
}

// Decrement lowers a line by one without going under one.
func (s *Store) Decrement(itemID string) (pricing.LineItem, error) {
	return s.update(itemID, func(current int) int {
		return quantity.Decrement(current, quantity.CartItemPolicy.Min)
	})
}

// SetQuantity assigns a clamped quantity to a line.
func (s *Store) SetQuantity(itemID string, qty int) (pricing.LineItem, error) {
	return s.update(itemID, func(int) int {
		return quantity.CartItemPolicy.Clamp(qty)
	})
}

func (s *Store) update(itemID string, next func(int) int) (pricing.LineItem, error) {
	s.mu.Lock()
	idx := s.indexOf(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return pricing.LineItem{}, ErrItemNotFound
	}
	before := s.lines[idx].Quantity
	after := next(before)
	s.lines[idx].Quantity = after
	line := s.lines[idx]
	if after != before {
		s.touch()
	}
	s.mu.Unlock()

	if after != before {
		s.emitQuantity(itemID, after)
	}
	return line, nil
}

// Remove deletes a line.
func (s *Store) Remove(itemID string) error {
	s.mu.Lock()
	idx := s.indexOf(itemID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrItemNotFound
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.touch()
	s.mu.Unlock()

	s.emitRemove(itemID)
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() {
	for _, line := range s.Items() {
		_ = s.Remove(line.ID)
	}
}

// Items returns a copy of the lines.
func (s *Store) Items() []pricing.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pricing.LineItem, len(s.lines))
	copy(out, s.lines)
	return out
}

// Count is the total number of units across lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, line := range s.lines {
		n += line.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Subtotal sums the line totals.
func (s *Store) Subtotal() decimal.Decimal {
	return pricing.Subtotal(s.Items())
}

// Totals derives the order summary for the chosen shipping option.
func (s *Store) Totals(shipping pricing.ShippingOption, taxRate decimal.Decimal) pricing.OrderTotals {
	return pricing.ComputeTotals(s.Items(), shipping, taxRate)
}

// UpdatedAt is the time of the last mutation.
func (s *Store) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Store) indexOf(itemID string) int {
	for i := range s.lines {
		if s.lines[i].ID == itemID {
			return i
		}
	}
	return -1
}

// touch must be called with mu held.
func (s *Store) touch() {
	s.updatedAt = s.now()
}

func (s *Store) emitRemove(itemID string) {
	s.logger.Debug("cart line removed", zap.String("item_id", itemID))
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		if l.OnRemove != nil {
			l.OnRemove(itemID)
		}
	}
}

func (s *Store) emitQuantity(itemID string, qty int) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		if l.OnQuantityChange != nil {
			l.OnQuantityChange(itemID, qty)
		}
	}
}
