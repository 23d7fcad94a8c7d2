package overlay

import "sync"

// Validator is implemented by form payloads submitted from a modal.
type Validator interface {
	Validate() error
}

// FormModal is an overlay carrying form values that reset to empty when it closes.
type FormModal[F Validator] struct {
	*Controller

	mu     sync.Mutex
	empty  F
	values F
}

// NewFormModal builds a closed modal whose values start at, and reset to, empty.
func NewFormModal[F Validator](name string, empty F, opts ...Option) *FormModal[F] {
	m := &FormModal[F]{empty: empty, values: empty}
	opts = append(opts, WithReset(m.resetValues))
	m.Controller = NewController(name, opts...)
	return m
}

// Values returns the current form values.
func (m *FormModal[F]) Values() F {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values
}

// SetValues records what the shopper typed.
func (m *FormModal[F]) SetValues(values F) {
	m.mu.Lock()
	m.values = values
	m.mu.Unlock()
}

// Submit validates the current values and hands them to onSubmit only when valid.
// The modal stays open either way; closing after success is the caller's call.
func (m *FormModal[F]) Submit(onSubmit func(F)) error {
	values := m.Values()
	if err := values.Validate(); err != nil {
		return err
	}
	if onSubmit != nil {
		onSubmit(values)
	}
	return nil
}

func (m *FormModal[F]) resetValues() {
	m.mu.Lock()
	m.values = m.empty
	m.mu.Unlock()
}
