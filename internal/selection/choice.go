// Package selection tracks a single chosen option out of a fixed list.
package selection

// Option is one selectable entry.
type Option[ID comparable] struct {
	ID     ID
	Label  string
	Detail string
}

// Choice holds the options and the current selection. Select accepts any id,
// including one that is not among the options; in that case no option is
// marked as selected and Valid reports false.
type Choice[ID comparable] struct {
	options  []Option[ID]
	selected ID
}

// New builds a choice with initial pre-selected. With no options nothing is selected.
func New[ID comparable](options []Option[ID], initial ID) *Choice[ID] {
	if len(options) == 0 {
		return &Choice[ID]{}
	}
	copied := make([]Option[ID], len(options))
	copy(copied, options)
	return &Choice[ID]{options: copied, selected: initial}
}

// Select replaces the current selection unconditionally.
func (c *Choice[ID]) Select(id ID) {
	c.selected = id
}

// Selected returns the id currently held, valid or not.
func (c *Choice[ID]) Selected() ID {
	return c.selected
}

// IsSelected reports whether id is the current selection.
func (c *Choice[ID]) IsSelected(id ID) bool {
	return c.selected == id
}

// Valid reports whether the selection matches one of the options.
func (c *Choice[ID]) Valid() bool {
	_, ok := c.Current()
	return ok
}

// Current returns the selected option when it exists.
func (c *Choice[ID]) Current() (Option[ID], bool) {
	for _, opt := range c.options {
		if opt.ID == c.selected {
			return opt, true
		}
	}
	return Option[ID]{}, false
}

// Options returns a copy of the option list.
func (c *Choice[ID]) Options() []Option[ID] {
	out := make([]Option[ID], len(c.options))
	copy(out, c.options)
	return out
}

// Marked is an option annotated with its selection flag, ready for rendering.
type Marked[ID comparable] struct {
	Option[ID]
	Selected bool
}

// Marked returns every option with exactly one flagged when the selection is valid.
func (c *Choice[ID]) Marked() []Marked[ID] {
	out := make([]Marked[ID], 0, len(c.options))
	for _, opt := range c.options {
		out = append(out, Marked[ID]{Option: opt, Selected: opt.ID == c.selected})
	}
	return out
}
