package selection

import "testing"

func addressOptions() []Option[string] {
	return []Option[string]{
		{ID: "addr-1", Label: "Home"},
		{ID: "addr-2", Label: "Office"},
		{ID: "addr-3", Label: "Parents"},
	}
}

func countMarked[ID comparable](items []Marked[ID]) int {
	n := 0
	for _, item := range items {
		if item.Selected {
			n++
		}
	}
	return n
}

func TestSelectMarksExactlyOne(t *testing.T) {
	c := New(addressOptions(), "addr-1")
	c.Select("addr-3")

	if !c.IsSelected("addr-3") || c.IsSelected("addr-1") {
		t.Fatalf("expected addr-3 selected, got %q", c.Selected())
	}
	marked := c.Marked()
	if n := countMarked(marked); n != 1 {
		t.Fatalf("expected exactly one marked option, got %d", n)
	}
	if !marked[2].Selected {
		t.Fatalf("expected third option to be marked")
	}
	cur, ok := c.Current()
	if !ok || cur.Label != "Parents" {
		t.Fatalf("expected current Parents, got %+v ok=%v", cur, ok)
	}
}

func TestSelectingCurrentIsNoop(t *testing.T) {
	c := New(addressOptions(), "addr-2")
	c.Select("addr-2")
	if c.Selected() != "addr-2" || !c.Valid() {
		t.Fatalf("expected addr-2 to remain selected")
	}
}

func TestUnknownIDLeavesNothingMarked(t *testing.T) {
	c := New(addressOptions(), "addr-1")
	c.Select("addr-99")

	if c.Selected() != "addr-99" {
		t.Fatalf("expected unknown id to be held, got %q", c.Selected())
	}
	if c.Valid() {
		t.Fatalf("expected selection to be reported invalid")
	}
	if n := countMarked(c.Marked()); n != 0 {
		t.Fatalf("expected no marked options, got %d", n)
	}
}

func TestOptionsAreCopied(t *testing.T) {
	opts := addressOptions()
	c := New(opts, "addr-1")
	opts[0].Label = "mutated"
	if got := c.Options()[0].Label; got != "Home" {
		t.Fatalf("expected options to be isolated from caller, got %q", got)
	}
}

func TestEmptyOptionsIgnoreInitial(t *testing.T) {
	c := New[string](nil, "addr-1")
	if c.Selected() != "" {
		t.Fatalf("expected no selection, got %q", c.Selected())
	}
	if c.IsSelected("addr-1") || c.Valid() {
		t.Fatalf("expected addr-1 not to be selected")
	}
	if len(c.Marked()) != 0 {
		t.Fatalf("expected no marked options")
	}
}
