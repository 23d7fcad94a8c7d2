// Package shopper keeps the per-session workspace: cart, overlays and modal forms.
package shopper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/cart"
	"finitefield.org/elevates-web/internal/forms"
	"finitefield.org/elevates-web/internal/overlay"
)

// Overlay names.
const (
	OverlayAddress  = "address"
	OverlayQuestion = "question"
	OverlaySearch   = "search"
	OverlayCart     = "cart"
)

const (
	defaultTTL           = 2 * time.Hour
	defaultSweepInterval = 5 * time.Minute
)

// Workspace is everything one shopper mutates between requests.
type Workspace struct {
	ID           string
	Cart         *cart.Store
	Overlays     *overlay.Stack
	AddressForm  *overlay.FormModal[forms.Address]
	QuestionForm *overlay.FormModal[forms.Question]

	lastSeen time.Time
}

// Config tunes the registry. Zero values get defaults.
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	FocusDelay    time.Duration
	Scheduler     overlay.Scheduler
	Clock         func() time.Time
	Logger        *zap.Logger
}

// Registry maps session ids to workspaces.
type Registry struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*Workspace
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.FocusDelay <= 0 {
		cfg.FocusDelay = overlay.DefaultFocusDelay
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = overlay.SystemScheduler
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Registry{cfg: cfg, now: now, entries: make(map[string]*Workspace)}
}

// Get returns the workspace for id, creating it on first use.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.entries[id]; ok {
		ws.lastSeen = r.now()
		return ws
	}
	ws := r.newWorkspace(id)
	ws.lastSeen = r.now()
	r.entries[id] = ws
	return ws
}

func (r *Registry) newWorkspace(id string) *Workspace {
	logger := r.cfg.Logger.With(zap.String("shopper_id", id))
	focus := func(name string) overlay.Option {
		return overlay.WithFocus(func() {
			logger.Debug("overlay focus moved", zap.String("overlay", name))
		})
	}
	common := []overlay.Option{
		overlay.WithFocusDelay(r.cfg.FocusDelay),
		overlay.WithScheduler(r.cfg.Scheduler),
	}
	opts := func(name string) []overlay.Option {
		return append(append([]overlay.Option{}, common...), focus(name))
	}

	address := overlay.NewFormModal(OverlayAddress, forms.Address{}, opts(OverlayAddress)...)
	question := overlay.NewFormModal(OverlayQuestion, forms.Question{}, opts(OverlayQuestion)...)
	search := overlay.NewController(OverlaySearch, opts(OverlaySearch)...)
	sidebar := overlay.NewController(OverlayCart, opts(OverlayCart)...)

	store := cart.NewStore(cart.Deps{Clock: r.now, Logger: logger})
	store.Subscribe(cart.Listener{
		OnRemove: func(itemID string) {
			logger.Info("cart line removed", zap.String("item_id", itemID))
		},
	})

	return &Workspace{
		ID:           id,
		Cart:         store,
		Overlays:     overlay.NewStack(address.Controller, question.Controller, search, sidebar),
		AddressForm:  address,
		QuestionForm: question,
	}
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts workspaces idle longer than the TTL and returns how many were dropped.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.TTL)

	r.mu.Lock()
	var evicted []*Workspace
	for id, ws := range r.entries {
		if ws.lastSeen.Before(cutoff) {
			evicted = append(evicted, ws)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range evicted {
		// stops pending focus timers
		ws.Overlays.CloseAll()
	}
	if len(evicted) > 0 {
		r.cfg.Logger.Info("shopper workspaces evicted", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps on the configured interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
