// Package quantity implements the bounded counters used by cart lines and product cards.
package quantity

// Increment returns min(current+1, max). A max of zero or less leaves the counter uncapped.
// A counter already past max is left where it is.
func Increment(current, max int) int {
	if max > 0 && current >= max {
		return current
	}
	return current + 1
}

// Decrement returns max(current-1, min).
func Decrement(current, min int) int {
	next := current - 1
	if next < min {
		return min
	}
	return next
}

// Policy bounds a counter. Max <= 0 means uncapped.
type Policy struct {
	Min int
	Max int
}

var (
	// CartItemPolicy floors at 1; removing a line is a separate explicit action.
	CartItemPolicy = Policy{Min: 1}
	// ProductCardPolicy floors at 0, which reverts the card to its "Add to Cart" button.
	ProductCardPolicy = Policy{Min: 0, Max: 5}
	// ProductDetailPolicy bounds the quantity picker on the product page.
	ProductDetailPolicy = Policy{Min: 1, Max: 10}
)

// Clamp forces n into the policy bounds.
func (p Policy) Clamp(n int) int {
	if n < p.Min {
		return p.Min
	}
	if p.Max > 0 && n > p.Max {
		return p.Max
	}
	return n
}

// State describes whether a zero-floored counter is showing its counter or its initial button.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// ChangeFunc is emitted upward whenever the quantity actually changes.
type ChangeFunc func(itemID string, qty int)

// Selector is a quantity counter bound to one item.
type Selector struct {
	itemID   string
	qty      int
	policy   Policy
	onChange ChangeFunc
}

// NewSelector constructs a selector starting at initial raised to the policy floor.
// The cap only limits Increment: a line raised elsewhere keeps its real quantity.
func NewSelector(itemID string, initial int, policy Policy, onChange ChangeFunc) *Selector {
	if initial < policy.Min {
		initial = policy.Min
	}
	return &Selector{
		itemID:   itemID,
		qty:      initial,
		policy:   policy,
		onChange: onChange,
	}
}

// ItemID returns the bound item identifier.
func (s *Selector) ItemID() string { return s.itemID }

// Quantity returns the current value.
func (s *Selector) Quantity() int { return s.qty }

// Policy returns the bounds in effect.
func (s *Selector) Policy() Policy { return s.policy }

// State reports Idle when a zero-floored counter sits at zero.
func (s *Selector) State() State {
	if s.qty <= 0 {
		return Idle
	}
	return Active
}

// CanIncrement reports whether Increment would change the value.
func (s *Selector) CanIncrement() bool {
	return s.policy.Max <= 0 || s.qty < s.policy.Max
}

// CanDecrement reports whether Decrement would change the value.
func (s *Selector) CanDecrement() bool {
	return s.qty > s.policy.Min
}

// Increment raises the quantity by one up to the cap.
func (s *Selector) Increment() int {
	return s.set(Increment(s.qty, s.policy.Max))
}

// Decrement lowers the quantity by one down to the floor.
func (s *Selector) Decrement() int {
	return s.set(Decrement(s.qty, s.policy.Min))
}

// AddToCart moves an Idle counter to one. Active counters are left untouched.
func (s *Selector) AddToCart() int {
	if s.State() == Active {
		return s.qty
	}
	return s.set(s.policy.Clamp(1))
}

// Set assigns n after clamping it to the policy.
func (s *Selector) Set(n int) int {
	return s.set(s.policy.Clamp(n))
}

func (s *Selector) set(n int) int {
	if n == s.qty {
		return n
	}
	s.qty = n
	if s.onChange != nil {
		s.onChange(s.itemID, n)
	}
	return n
}
