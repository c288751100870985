package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy bounds how a ProviderCall is retried.
type RetryPolicy struct {
	MaxRetries     int
	BaseDelay      time.Duration
	Jitter         time.Duration
	AttemptTimeout time.Duration // zero disables the per-attempt deadline
}

// DefaultRetryPolicy waits 2^attempt + U(0,1) seconds between attempts.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:     3,
	BaseDelay:      time.Second,
	Jitter:         time.Second,
	AttemptTimeout: 30 * time.Second,
}

// Backoff returns the delay after the failed attempt (0-indexed); r is a
// jitter sample in [0, 1).
func (p RetryPolicy) Backoff(attempt int, r float64) time.Duration {
	base := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	return time.Duration(base + r*float64(p.Jitter))
}

// Executor runs provider calls under a RetryPolicy.
type Executor struct {
	policy RetryPolicy
	log    logrus.FieldLogger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

type ExecutorOption func(*Executor)

func WithLogger(l logrus.FieldLogger) ExecutorOption {
	return func(e *Executor) { e.log = l }
}

// WithSleep replaces the backoff sleep; tests use it to record delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) { e.sleep = fn }
}

// WithJitter replaces the uniform [0, 1) jitter source.
func WithJitter(fn func() float64) ExecutorOption {
	return func(e *Executor) { e.jitter = fn }
}

func NewExecutor(policy RetryPolicy, opts ...ExecutorOption) *Executor {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	e := &Executor{
		policy: policy,
		log:    logrus.StandardLogger(),
		sleep:  sleepContext,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the executor's retry policy.
func (e *Executor) Policy() RetryPolicy { return e.policy }

// Execute invokes call until it succeeds or the retry budget is spent.
// Failures are returned as *ProviderError wrapping the last cause.
func (e *Executor) Execute(ctx context.Context, call ProviderCall) (string, error) {
	text, _, err := retry[string](ctx, e, call)
	return text, err
}

// ExecuteWithRetry runs call with the default policy and the given budget.
func ExecuteWithRetry(ctx context.Context, call ProviderCall, maxRetries int) (string, error) {
	policy := DefaultRetryPolicy
	policy.MaxRetries = maxRetries
	return NewExecutor(policy).Execute(ctx, call)
}

// Retry applies the executor's policy to an arbitrary operation.
func Retry[T any](ctx context.Context, e *Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	v, _, err := retry(ctx, e, fn)
	return v, err
}

func retry[T any](ctx context.Context, e *Executor, fn func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxRetries; attempt++ {
		v, err := runAttempt(ctx, e.policy.AttemptTimeout, fn)
		if err == nil {
			return v, attempt + 1, nil
		}
		lastErr = err

		e.log.WithFields(logrus.Fields{
			"attempt":     attempt + 1,
			"max_retries": e.policy.MaxRetries,
			"error":       err.Error(),
		}).Warn("provider attempt failed")

		if !isRetryable(err) {
			return zero, attempt + 1, &ProviderError{Attempts: attempt + 1, Err: err}
		}
		if attempt == e.policy.MaxRetries-1 {
			break
		}
		if err := e.sleep(ctx, e.policy.Backoff(attempt, e.jitter())); err != nil {
			return zero, attempt + 1, &ProviderError{
				Attempts: attempt + 1,
				Err:      fmt.Errorf("%w (last error: %v)", err, lastErr),
			}
		}
	}
	return zero, e.policy.MaxRetries, &ProviderError{Attempts: e.policy.MaxRetries, Err: lastErr}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx)
}

func isRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
