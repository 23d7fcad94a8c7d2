package overlay

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// KeyEscape is the key name routed to the topmost overlay.
const KeyEscape = "Escape"

// ErrUnknownOverlay is returned when a name was never registered on the stack.
var ErrUnknownOverlay = errors.New("overlay: unknown overlay")

// Stack owns every overlay of one shopper and dispatches keyboard dismissal to the
// most recently opened one only.
type Stack struct {
	mu       sync.RWMutex
	overlays map[string]*Controller
}

// NewStack registers the given controllers.
func NewStack(controllers ...*Controller) *Stack {
	s := &Stack{overlays: make(map[string]*Controller, len(controllers))}
	for _, c := range controllers {
		s.Register(c)
	}
	return s
}

// Register adds or replaces a controller under its name.
func (s *Stack) Register(c *Controller) {
	if c == nil {
		return
	}
	s.mu.Lock()
	s.overlays[c.Name()] = c
	s.mu.Unlock()
}

// Get returns the named controller.
func (s *Stack) Get(name string) (*Controller, error) {
	s.mu.RLock()
	c, ok := s.overlays[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOverlay, name)
	}
	return c, nil
}

// Open opens the named overlay on top of any already open.
func (s *Stack) Open(name string) error {
	c, err := s.Get(name)
	if err != nil {
		return err
	}
	c.Open()
	return nil
}

// Close closes the named overlay.
func (s *Stack) Close(name string) error {
	c, err := s.Get(name)
	if err != nil {
		return err
	}
	c.Close()
	return nil
}

// ClickBackdrop dismisses the overlay whose backdrop received the click.
func (s *Stack) ClickBackdrop(name string) error {
	return s.Close(name)
}

// HandleKey routes a key press. Escape closes the topmost open overlay and returns its
// name; any other key, or Escape with nothing open, is ignored.
func (s *Stack) HandleKey(key string) (string, bool) {
	if key != KeyEscape {
		return "", false
	}
	top, ok := s.topmost()
	if !ok {
		return "", false
	}
	top.Close()
	return top.Name(), true
}

// Top returns the name of the most recently opened overlay still open.
func (s *Stack) Top() (string, bool) {
	c, ok := s.topmost()
	if !ok {
		return "", false
	}
	return c.Name(), true
}

// OpenNames lists open overlays from bottom to top.
func (s *Stack) OpenNames() []string {
	type entry struct {
		name string
		seq  uint64
	}
	s.mu.RLock()
	entries := make([]entry, 0, len(s.overlays))
	for name, c := range s.overlays {
		if seq, open := c.openedSeq(); open {
			entries = append(entries, entry{name: name, seq: seq})
		}
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// IsOpen reports whether the named overlay is open. Unknown names are closed.
func (s *Stack) IsOpen(name string) bool {
	c, err := s.Get(name)
	if err != nil {
		return false
	}
	return c.IsOpen()
}

// ScrollLocked is true while any overlay is open.
func (s *Stack) ScrollLocked() bool {
	_, ok := s.topmost()
	return ok
}

// CloseAll closes every open overlay, topmost first.
func (s *Stack) CloseAll() {
	names := s.OpenNames()
	for i := len(names) - 1; i >= 0; i-- {
		_ = s.Close(names[i])
	}
}

func (s *Stack) topmost() (*Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		top    *Controller
		topSeq uint64
	)
	for _, c := range s.overlays {
		seq, open := c.openedSeq()
		if open && (top == nil || seq > topSeq) {
			top, topSeq = c, seq
		}
	}
	return top, top != nil
}
