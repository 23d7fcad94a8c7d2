// Package httpx writes the JSON error envelope used by htmx and API-style failures.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"finitefield.org/elevates-web/internal/requestctx"
)

// Error is an error code, a human message and the HTTP status to send them with.
type Error struct {
	Code    string
	Message string
	Status  int
}

// NewError builds an Error. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: clip(code, 80), Message: clip(message, 512), Status: status}
}

// Mapping turns a sentinel error into the envelope it should produce.
type Mapping struct {
	Target error
	Error  Error
}

// FromError returns the first mapping matching err via errors.Is, else a 500.
func FromError(err error, mappings ...Mapping) Error {
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			return m.Error
		}
	}
	return NewError("internal_server_error", "internal server error", http.StatusInternalServerError)
}

type envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteError writes e as JSON, stamped with the request and trace ids from ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(envelope{
		Error:     e.Code,
		Message:   e.Message,
		Status:    e.Status,
		RequestID: clip(middleware.GetReqID(ctx), 80),
		TraceID:   clip(requestctx.TraceID(ctx), 64),
	})
}

func clip(value string, limit int) string {
	value = strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ").Replace(value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
