package questions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:         baseURL,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		Clock:           func() time.Time { return time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC) },
	})
}

func sampleQuestion() Question {
	return Question{ProductID: "prod-1", ProductName: "Classic Tee", Text: "  Does it shrink after washing?  ", ShopperID: "s-1"}
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	keys := map[string]struct{}{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/prod-1/questions", r.URL.Path)
		mu.Lock()
		keys[r.Header.Get(idempotencyHeader)] = struct{}{}
		mu.Unlock()

		var body questionPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Does it shrink after washing?", body.Question)

		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"q_123","status":"pending_moderation","submittedAt":"2024-05-02T09:31:00Z"}`))
	}))
	defer srv.Close()

	receipt, err := newTestClient(srv.URL).Submit(context.Background(), sampleQuestion())
	require.NoError(t, err)
	require.Equal(t, "q_123", receipt.ID)
	require.Equal(t, "pending_moderation", receipt.Status)
	require.Equal(t, time.Date(2024, 5, 2, 9, 31, 0, 0, time.UTC), receipt.SubmittedAt)
	require.EqualValues(t, 3, calls.Load())
	require.Len(t, keys, 1, "retries must reuse the idempotency key")
}

func TestSubmitDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "question contains a link", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), sampleQuestion())
	require.ErrorIs(t, err, ErrRejected)
	require.EqualValues(t, 1, calls.Load())
}

func TestSubmitGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), sampleQuestion())
	require.ErrorIs(t, err, ErrUnavailable)
	require.False(t, errors.Is(err, ErrRejected))
	require.EqualValues(t, 3, calls.Load())
}

func TestSubmitStopsWhenContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(srv.URL).Submit(ctx, sampleQuestion())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSubmitValidatesInput(t *testing.T) {
	_, err := newTestClient("").Submit(context.Background(), Question{ProductID: "prod-1", Text: "   "})
	require.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestRecorderFallbackWhenNoBackend(t *testing.T) {
	client := newTestClient("")
	require.NotNil(t, client.Fallback())

	receipt, err := client.Submit(context.Background(), sampleQuestion())
	require.NoError(t, err)
	require.NotEmpty(t, receipt.ID)
	require.Equal(t, "received", receipt.Status)

	recorded := client.Fallback().ForProduct("prod-1")
	require.Len(t, recorded, 1)
	require.Equal(t, "Does it shrink after washing?", recorded[0].Text)
	require.Empty(t, client.Fallback().ForProduct("prod-2"))
}
