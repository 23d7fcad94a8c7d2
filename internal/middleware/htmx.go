package middleware

import (
	"encoding/json"
	"net/http"
)

// HTMX marks requests coming from htmx so handlers can answer with fragments.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), is)))
	})
}

// Triggers accumulates client-side events sent in the HX-Trigger header.
type Triggers map[string]any

// Add records an event with its payload.
func (t Triggers) Add(event string, payload any) Triggers {
	t[event] = payload
	return t
}

// Toast queues a toast notification event.
func (t Triggers) Toast(kind, message string) Triggers {
	return t.Add("toast", map[string]string{"kind": kind, "message": message})
}

// Write sets the HX-Trigger header. It must run before the response header is written.
func (t Triggers) Write(w http.ResponseWriter) {
	if len(t) == 0 {
		return
	}
	if raw, err := json.Marshal(map[string]any(t)); err == nil {
		w.Header().Set("HX-Trigger", string(raw))
	}
}

// Redirect sends htmx clients an HX-Redirect and everyone else a 303.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
