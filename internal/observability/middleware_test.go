package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"finitefield.org/elevates-web/internal/requestctx"
)

func newObservedRouter(t *testing.T) (*chi.Mux, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(InjectLoggerMiddleware(logger))
	r.Use(TraceMiddleware)
	r.Use(RequestLoggerMiddleware)
	r.Use(RecoveryMiddleware(logger))
	r.Get("/products/{slug}", func(w http.ResponseWriter, r *http.Request) {
		requestctx.Logger(r.Context()).Info("handler ran")
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})
	return r, logs
}

func TestRequestLoggerAddsRequestFields(t *testing.T) {
	router, logs := newObservedRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/products/wolf-tee", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	handler := logs.FilterMessage("handler ran").All()
	require.Len(t, handler, 1)
	fields := handler[0].ContextMap()
	require.NotEmpty(t, fields["request_id"])
	require.Equal(t, "GET", fields["method"])
	require.Equal(t, true, fields["htmx"])

	done := logs.FilterMessage("request completed").All()
	require.Len(t, done, 1)
	require.Equal(t, "/products/{slug}", done[0].ContextMap()["route"])
	require.EqualValues(t, http.StatusAccepted, done[0].ContextMap()["status"])
}

func TestRecoveryWritesJSONError(t *testing.T) {
	router, logs := newObservedRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal_server_error", body["error"])
	require.Len(t, logs.FilterMessage("panic recovered").All(), 1)
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	require.Equal(t, zapcore.ErrorLevel, completed[0].Level)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	cfg := newConfig("verbose")
	require.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	cfg = newConfig("DEBUG")
	require.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	require.Equal(t, "/a", SanitizeRoute("/a\x00\n"))
	require.Equal(t, "/", SanitizeRoute(""))
}
