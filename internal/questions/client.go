// Package questions submits product questions to the Q&A backend.
package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultTimeout         = 5 * time.Second
	defaultMaxAttempts     = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
	idempotencyHeader      = "Idempotency-Key"
	maxErrorBody           = 512
)

var tracer = otel.Tracer("finitefield.org/elevates-web/internal/questions")

// ErrUnavailable indicates the backend could not be reached after every retry.
var ErrUnavailable = errors.New("questions: backend unavailable")

// ErrRejected indicates the backend refused the question; retrying will not help.
var ErrRejected = errors.New("questions: rejected")

// ErrInvalidQuestion indicates the caller supplied an empty question or product.
var ErrInvalidQuestion = errors.New("questions: invalid question")

// Question is one shopper question about a product.
type Question struct {
	ProductID   string
	ProductName string
	Text        string
	ShopperID   string
}

// Receipt acknowledges a stored question.
type Receipt struct {
	ID          string
	Status      string
	SubmittedAt time.Time
}

// Submitter is satisfied by Client and Recorder.
type Submitter interface {
	Submit(ctx context.Context, q Question) (Receipt, error)
}

// Config controls the HTTP client. An empty BaseURL selects the in-process Recorder.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
	Clock           func() time.Time
}

// Client posts questions as JSON and retries transient failures with exponential backoff.
type Client struct {
	baseURL     string
	http        *http.Client
	maxAttempts int
	initial     time.Duration
	logger      *zap.Logger
	now         func() time.Time
	fallback    *Recorder
}

// NewClient constructs a client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	initial := cfg.InitialInterval
	if initial <= 0 {
		initial = defaultInitialInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:        httpClient,
		maxAttempts: attempts,
		initial:     initial,
		logger:      logger,
		now:         now,
	}
	if c.baseURL == "" {
		c.fallback = NewRecorder(now)
	}
	return c
}

// Fallback returns the in-process recorder when no backend is configured.
func (c *Client) Fallback() *Recorder { return c.fallback }

type questionPayload struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Question    string `json:"question"`
	ShopperID   string `json:"shopperId,omitempty"`
}

type receiptPayload struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submittedAt"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// Submit stores the question. Transport errors, 408, 429 and 5xx are retried; other 4xx fail fast.
func (c *Client) Submit(ctx context.Context, q Question) (Receipt, error) {
	q.ProductID = strings.TrimSpace(q.ProductID)
	q.Text = strings.TrimSpace(q.Text)
	if q.ProductID == "" || q.Text == "" {
		return Receipt{}, ErrInvalidQuestion
	}
	if c.fallback != nil {
		return c.fallback.Submit(ctx, q)
	}

	ctx, span := tracer.Start(ctx, "questions.Submit", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("product.id", q.ProductID))

	endpoint, err := url.JoinPath(c.baseURL, "products", q.ProductID, "questions")
	if err != nil {
		return Receipt{}, err
	}
	payload, err := json.Marshal(questionPayload{
		ProductID:   q.ProductID,
		ProductName: q.ProductName,
		Question:    q.Text,
		ShopperID:   q.ShopperID,
	})
	if err != nil {
		return Receipt{}, err
	}
	key := ulid.Make().String()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxInterval = defaultMaxInterval
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1)), ctx)

	attempt := 0
	var receipt Receipt
	op := func() error {
		attempt++
		r, err := c.post(ctx, endpoint, key, payload)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && !retryableStatus(se.code) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrRejected, err))
			}
			return err
		}
		receipt = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("question submit retry",
			zap.String("product_id", q.ProductID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err = backoff.RetryNotify(op, retry, notify)
	span.SetAttributes(attribute.Int("questions.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		if errors.Is(err, ErrRejected) {
			return Receipt{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Receipt{}, fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}
		return Receipt{}, fmt.Errorf("%w: after %d attempts: %v", ErrUnavailable, attempt, err)
	}
	c.logger.Info("question submitted",
		zap.String("product_id", q.ProductID),
		zap.String("question_id", receipt.ID),
		zap.Int("attempts", attempt),
	)
	return receipt, nil
}

func (c *Client) post(ctx context.Context, endpoint, key string, payload []byte) (Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(idempotencyHeader, key)

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Receipt{}, &statusError{code: resp.StatusCode, body: drainError(resp.Body)}
	}

	var body receiptPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Receipt{}, backoff.Permanent(fmt.Errorf("questions: decode receipt: %w", err))
	}
	return body.toReceipt(c.now()), nil
}

func (p receiptPayload) toReceipt(fallback time.Time) Receipt {
	r := Receipt{
		ID:          strings.TrimSpace(p.ID),
		Status:      strings.TrimSpace(p.Status),
		SubmittedAt: fallback.UTC(),
	}
	if r.Status == "" {
		r.Status = "received"
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(p.SubmittedAt)); err == nil {
		r.SubmittedAt = ts.UTC()
	}
	return r
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

// Recorder keeps questions in memory. It stands in for the backend in development.
type Recorder struct {
	now func() time.Time

	mu        sync.Mutex
	questions []RecordedQuestion
}

// RecordedQuestion is a question held by the Recorder.
type RecordedQuestion struct {
	Question
	Receipt Receipt
}

// NewRecorder constructs an empty recorder.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Submit always succeeds unless ctx is already done.
func (r *Recorder) Submit(ctx context.Context, q Question) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	receipt := Receipt{ID: ulid.Make().String(), Status: "received", SubmittedAt: r.now().UTC()}
	r.mu.Lock()
	r.questions = append(r.questions, RecordedQuestion{Question: q, Receipt: receipt})
	r.mu.Unlock()
	return receipt, nil
}

// ForProduct lists recorded questions for a product, oldest first.
func (r *Recorder) ForProduct(productID string) []RecordedQuestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecordedQuestion
	for _, q := range r.questions {
		if q.ProductID == productID {
			out = append(out, q)
		}
	}
	return out
}
