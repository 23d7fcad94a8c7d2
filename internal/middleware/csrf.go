package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
)

// CSRF issues a double-submit cookie tied to the session token and rejects unsafe requests
// whose header (or form field) and cookie do not both match it.
func (m *SessionManager) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		token := s.CSRFToken
		if token == "" {
			token = newCSRFToken()
			s.CSRFToken = token
			s.MarkDirty()
		}

		if c, err := r.Cookie(csrfCookieName); err != nil || c.Value != token {
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false,
				Secure:   m.cfg.Secure,
				SameSite: http.SameSiteLaxMode,
				Expires:  m.now().Add(24 * time.Hour),
			})
		}

		if !isSafeMethod(r.Method) {
			submitted := strings.TrimSpace(r.Header.Get(csrfHeaderName))
			if submitted == "" {
				submitted = strings.TrimSpace(r.PostFormValue(csrfFormField))
			}
			if !tokensEqual(submitted, token) {
				writeError(w, r, http.StatusForbidden, "csrf_invalid", "invalid CSRF token")
				return
			}
			if c, err := r.Cookie(csrfCookieName); err != nil || !tokensEqual(c.Value, token) {
				writeError(w, r, http.StatusForbidden, "csrf_invalid", "invalid CSRF token")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token templates embed in forms and the htmx header config.
func CSRFToken(r *http.Request) string {
	return GetSession(r).CSRFToken
}

func tokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
