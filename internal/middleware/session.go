package middleware

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"finitefield.org/elevates-web/internal/requestctx"
)

const (
	defaultSessionCookie = "elevates_session"
	defaultSessionTTL    = 30 * 24 * time.Hour
	// MaxSavedAddresses keeps the cookie well under the 4KB browser limit.
	MaxSavedAddresses = 6
)

// ErrInvalidSessionConfig indicates the manager was initialised with unusable keys.
var ErrInvalidSessionConfig = errors.New("session: invalid config")

// SessionData is the state persisted in the signed session cookie.
type SessionData struct {
	ID        string        `json:"id"`
	CSRFToken string        `json:"csrf,omitempty"`
	Checkout  CheckoutState `json:"checkout,omitempty"`
	Mobile    string        `json:"mobile,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	dirty bool
	now   func() time.Time
}

// CheckoutState stores checkout choices between requests.
type CheckoutState struct {
	AddressID        string           `json:"addr,omitempty"`
	ShippingMethod   string           `json:"ship,omitempty"`
	BillingDifferent bool             `json:"billDiff,omitempty"`
	Email            string           `json:"email,omitempty"`
	Addresses        []SessionAddress `json:"addresses,omitempty"`
}

// SessionAddress is an address the shopper added during this session.
type SessionAddress struct {
	ID        string    `json:"id"`
	FullName  string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Flat      string    `json:"flat"`
	Area      string    `json:"area,omitempty"`
	Pincode   string    `json:"pin"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// MarkDirty flags the session for writing at the end of the request.
func (s *SessionData) MarkDirty() {
	s.dirty = true
	if s.now != nil {
		s.UpdatedAt = s.now().UTC()
	} else {
		s.UpdatedAt = time.Now().UTC()
	}
}

// UpsertAddress adds addr to the front of the saved list, or replaces the entry with the same id.
func (s *SessionData) UpsertAddress(addr SessionAddress) {
	for i := range s.Checkout.Addresses {
		if s.Checkout.Addresses[i].ID == addr.ID {
			s.Checkout.Addresses[i] = addr
			s.MarkDirty()
			return
		}
	}
	s.Checkout.Addresses = append([]SessionAddress{addr}, s.Checkout.Addresses...)
	if len(s.Checkout.Addresses) > MaxSavedAddresses {
		s.Checkout.Addresses = s.Checkout.Addresses[:MaxSavedAddresses]
	}
	s.MarkDirty()
}

// SessionConfig controls cookie encoding.
type SessionConfig struct {
	CookieName string
	HashKey    []byte
	BlockKey   []byte
	Secure     bool
	TTL        time.Duration
	Now        func() time.Time
}

// SessionManager loads and persists SessionData through a securecookie codec.
type SessionManager struct {
	cfg       SessionConfig
	codec     *securecookie.SecureCookie
	now       func() time.Time
	ephemeral bool
}

// NewSessionManager constructs a manager. Without a hash key a random one is generated,
// which invalidates sessions on restart.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultSessionCookie
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ephemeral := false
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(64)
		ephemeral = true
	}
	switch len(cfg.BlockKey) {
	case 0:
		cfg.BlockKey = nil
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidSessionConfig)
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.TTL.Seconds()))

	return &SessionManager{cfg: cfg, codec: codec, now: now, ephemeral: ephemeral}, nil
}

// Ephemeral reports whether the signing key was generated at startup.
func (m *SessionManager) Ephemeral() bool { return m.ephemeral }

// CookieName returns the session cookie name.
func (m *SessionManager) CookieName() string { return m.cfg.CookieName }

// Middleware loads or initialises the session, exposes it on the context and writes the
// cookie back just before the response header when it changed.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := m.load(r)
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		ctx = requestctx.WithShopperID(ctx, sd.ID)
		r = r.WithContext(ctx)

		persist := func(w http.ResponseWriter) {
			if !sd.dirty && fromCookie {
				return
			}
			if err := m.save(w, sd); err != nil {
				requestctx.Logger(ctx).Warn("session save failed", zap.Error(err))
			}
		}
		rw := newBeforeWriteWriter(w, persist)
		next.ServeHTTP(rw, r)
		// nothing written (e.g. HEAD)
		rw.fire()
	})
}

func (m *SessionManager) load(r *http.Request) (*SessionData, bool) {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		var sd SessionData
		if err := m.codec.Decode(m.cfg.CookieName, c.Value, &sd); err == nil && sd.ID != "" {
			sd.now = m.now
			return &sd, true
		}
	}
	now := m.now().UTC()
	return &SessionData{
		ID:        ulid.Make().String(),
		CSRFToken: newCSRFToken(),
		CreatedAt: now,
		UpdatedAt: now,
		dirty:     true,
		now:       m.now,
	}, false
}

func (m *SessionManager) save(w http.ResponseWriter, sd *SessionData) error {
	encoded, err := m.codec.Encode(m.cfg.CookieName, sd)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  m.now().Add(m.cfg.TTL),
		MaxAge:   int(m.cfg.TTL.Seconds()),
	})
	sd.dirty = false
	return nil
}

// GetSession returns session data from context. Outside the middleware it returns a
// throwaway session.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok && sd != nil {
		return sd
	}
	return &SessionData{}
}

func newCSRFToken() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(16))
}
