package overlay

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTimer struct {
	sched   *fakeScheduler
	fn      func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{sched: s, fn: f, delay: d}
	s.timers = append(s.timers, t)
	return t
}

// fireAll runs every timer, including stopped ones, to prove late callbacks are inert.
func (s *fakeScheduler) fireAll(includeStopped bool) {
	s.mu.Lock()
	timers := append([]*fakeTimer(nil), s.timers...)
	s.mu.Unlock()
	for _, t := range timers {
		s.mu.Lock()
		skip := t.fired || (t.stopped && !includeStopped)
		t.fired = true
		s.mu.Unlock()
		if !skip {
			t.fn()
		}
	}
}

type noteForm struct {
	Text string
}

func (f noteForm) Validate() error {
	if len(strings.TrimSpace(f.Text)) < 3 {
		return errors.New("too short")
	}
	return nil
}

func TestOpenSchedulesFocusAfterDelay(t *testing.T) {
	sched := &fakeScheduler{}
	focused := 0
	c := NewController("search", WithScheduler(sched), WithFocus(func() { focused++ }))

	if !c.Open() {
		t.Fatalf("expected first open to report true")
	}
	if c.Open() {
		t.Fatalf("expected second open to be a no-op")
	}
	if len(sched.timers) != 1 || sched.timers[0].delay != DefaultFocusDelay {
		t.Fatalf("expected one timer at %s, got %+v", DefaultFocusDelay, sched.timers)
	}
	if focused != 0 {
		t.Fatalf("focus must not run before the delay elapses")
	}
	sched.fireAll(false)
	if focused != 1 {
		t.Fatalf("expected focus once, got %d", focused)
	}
	if c.FocusPending() {
		t.Fatalf("expected no pending focus after firing")
	}
}

func TestCloseBeforeDelayCancelsFocus(t *testing.T) {
	sched := &fakeScheduler{}
	focused := 0
	c := NewController("address", WithScheduler(sched), WithFocus(func() { focused++ }))

	c.Open()
	if !c.Close() {
		t.Fatalf("expected close to report true")
	}
	if !sched.timers[0].stopped {
		t.Fatalf("expected pending focus timer to be stopped")
	}
	// a timer that raced past Stop must still do nothing
	sched.fireAll(true)
	if focused != 0 {
		t.Fatalf("expected focus to be cancelled, ran %d times", focused)
	}
}

func TestReopenIgnoresStaleTimer(t *testing.T) {
	sched := &fakeScheduler{}
	focused := 0
	c := NewController("cart", WithScheduler(sched), WithFocus(func() { focused++ }))

	c.Open()
	c.Close()
	c.Open()
	sched.fireAll(true)
	if focused != 1 {
		t.Fatalf("expected only the current open to focus, got %d", focused)
	}
}

func TestRealSchedulerCloseCancelsFocus(t *testing.T) {
	fired := make(chan struct{}, 1)
	c := NewController("question", WithFocusDelay(20*time.Millisecond), WithFocus(func() { fired <- struct{}{} }))
	c.Open()
	c.Close()
	select {
	case <-fired:
		t.Fatalf("focus ran after close")
	case <-time.After(60 * time.Millisecond):
	}

	c.Open()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("expected focus to run after reopening")
	}
	c.Close()
}

func TestEscapeClosesTopmostOnly(t *testing.T) {
	sched := &fakeScheduler{}
	cart := NewController("cart", WithScheduler(sched))
	address := NewController("address", WithScheduler(sched))
	search := NewController("search", WithScheduler(sched))
	stack := NewStack(cart, address, search)

	if name, ok := stack.HandleKey(KeyEscape); ok {
		t.Fatalf("expected Escape with nothing open to be ignored, closed %q", name)
	}

	mustOpen(t, stack, "cart")
	mustOpen(t, stack, "address")
	if !stack.ScrollLocked() {
		t.Fatalf("expected scroll lock while overlays are open")
	}
	if name, ok := stack.HandleKey("Enter"); ok {
		t.Fatalf("expected non-Escape keys to be ignored, closed %q", name)
	}

	name, ok := stack.HandleKey(KeyEscape)
	if !ok || name != "address" {
		t.Fatalf("expected address to close first, got %q ok=%v", name, ok)
	}
	if !cart.IsOpen() || address.IsOpen() {
		t.Fatalf("expected cart open and address closed")
	}

	name, ok = stack.HandleKey(KeyEscape)
	if !ok || name != "cart" {
		t.Fatalf("expected cart to close second, got %q ok=%v", name, ok)
	}
	if stack.ScrollLocked() {
		t.Fatalf("expected scroll lock released")
	}
}

func TestClosedOverlayDropsOutOfOrder(t *testing.T) {
	stack := NewStack(NewController("cart"), NewController("search"), NewController("address"))
	mustOpen(t, stack, "cart")
	mustOpen(t, stack, "search")
	mustOpen(t, stack, "address")

	if err := stack.ClickBackdrop("address"); err != nil {
		t.Fatalf("backdrop: %v", err)
	}
	if top, _ := stack.Top(); top != "search" {
		t.Fatalf("expected search on top, got %q", top)
	}
	got := stack.OpenNames()
	if len(got) != 2 || got[0] != "cart" || got[1] != "search" {
		t.Fatalf("unexpected open order %v", got)
	}
	stack.CloseAll()
	if stack.ScrollLocked() {
		t.Fatalf("expected all overlays closed")
	}
}

func TestUnknownOverlay(t *testing.T) {
	stack := NewStack()
	if err := stack.Open("nope"); !errors.Is(err, ErrUnknownOverlay) {
		t.Fatalf("expected ErrUnknownOverlay, got %v", err)
	}
	if stack.IsOpen("nope") {
		t.Fatalf("unknown overlays are never open")
	}
}

func TestFormModalResetsOnClose(t *testing.T) {
	m := NewFormModal("question", noteForm{}, WithScheduler(&fakeScheduler{}))
	m.Open()
	m.SetValues(noteForm{Text: "half typed"})
	m.Close()
	if got := m.Values(); got.Text != "" {
		t.Fatalf("expected values reset on close, got %+v", got)
	}
}

func TestFormModalSubmitValidates(t *testing.T) {
	m := NewFormModal("question", noteForm{}, WithScheduler(&fakeScheduler{}))
	m.Open()
	m.SetValues(noteForm{Text: " a "})

	called := false
	if err := m.Submit(func(noteForm) { called = true }); err == nil {
		t.Fatalf("expected validation error")
	}
	if called {
		t.Fatalf("onSubmit must not run for invalid values")
	}
	if got := m.Values(); got.Text != " a " {
		t.Fatalf("expected values untouched on failure, got %+v", got)
	}

	m.SetValues(noteForm{Text: "is it waterproof"})
	var received noteForm
	if err := m.Submit(func(f noteForm) { received = f }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Text != "is it waterproof" {
		t.Fatalf("expected payload forwarded, got %+v", received)
	}
	if !m.IsOpen() {
		t.Fatalf("submit must not close the modal by itself")
	}
}

func mustOpen(t *testing.T, s *Stack, name string) {
	t.Helper()
	if err := s.Open(name); err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
}
