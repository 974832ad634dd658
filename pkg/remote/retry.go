package remote

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
)

// RetryPolicy defines retry behavior for transport calls
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64
}

// NewRetryPolicy creates a new retry policy with exponential backoff
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    initialDelay,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// PolicyFromConfig builds a policy from the reliability section: one first
// attempt plus MaxRetry retries.
func PolicyFromConfig(cfg config.ReliabilityConfig) *RetryPolicy {
	policy := NewRetryPolicy(cfg.MaxRetry+1, cfg.RetryDelay)
	if cfg.MaxRetryDelay > 0 {
		policy.MaxDelay = cfg.MaxRetryDelay
	}
	return policy
}

// ExecuteWithCondition runs fn, retrying while shouldRetry approves the error
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	var lastErr error

	for attempt := 0; attempt < rp.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Don't retry on the last attempt
		if attempt == rp.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(rp.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if rp.MaxAttempts <= 1 {
		return lastErr
	}
	return fmt.Errorf("all %d attempts failed: %w", rp.MaxAttempts, lastErr)
}

// calculateDelay calculates the delay for a given attempt
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	delay := float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt))

	if rp.MaxDelay > 0 && delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	// jitter
	if rp.RandomizeFactor > 0 {
		delta := delay * rp.RandomizeFactor
		minDelay := delay - delta
		maxDelay := delay + delta
		delay = minDelay + (rand.Float64() * (maxDelay - minDelay))
	}

	return time.Duration(delay)
}

// GetDelay returns the delay for a specific attempt (for testing/preview)
func (rp *RetryPolicy) GetDelay(attempt int) time.Duration {
	return rp.calculateDelay(attempt)
}

// retryingFS retries retryable transport errors and paces calls through a
// shared limiter.
type retryingFS struct {
	next        FileSystem
	policy      *RetryPolicy
	limiter     *rate.Limiter
	callTimeout time.Duration
	inflight    *semaphore.Weighted
	logger      *zap.Logger
}

// RetryOption tunes the wrapper returned by WithRetry.
type RetryOption func(*retryingFS)

// WithCallTimeout bounds every single attempt by d. Zero disables it.
func WithCallTimeout(d time.Duration) RetryOption {
	return func(r *retryingFS) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithMaxConcurrency caps the number of calls in flight against the
// underlying filesystem. Zero or less means no cap.
func WithMaxConcurrency(n int) RetryOption {
	return func(r *retryingFS) {
		if n > 0 {
			r.inflight = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRetry wraps fs so that every call is rate limited by limiter (nil for
// unlimited) and retried under policy when the error is retryable.
func WithRetry(fs FileSystem, policy *RetryPolicy, limiter *rate.Limiter, log *zap.Logger, opts ...RetryOption) FileSystem {
	if log == nil {
		log = zap.NewNop()
	}
	if policy == nil {
		policy = NewRetryPolicy(1, 0)
	}
	r := &retryingFS{next: fs, policy: policy, limiter: limiter, logger: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewLimiter returns a limiter allowing perSecond calls, or nil when
// perSecond is not positive.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}

func (r *retryingFS) do(ctx context.Context, operation, target string, fn func(context.Context) error) error {
	attempt := 0
	return r.policy.ExecuteWithCondition(ctx, func() error {
		if attempt > 0 {
			metrics.TransportRetries.WithLabelValues(operation).Inc()
			r.logger.Debug("retrying transport call",
				zap.String("operation", operation),
				zap.String("path", target),
				zap.Int("attempt", attempt+1))
		}
		attempt++
		return r.call(ctx, fn)
	}, retryable(ctx))
}

// call runs one attempt: it waits for the limiter and a free slot, then
// invokes fn under the per-call timeout.
func (r *retryingFS) call(ctx context.Context, fn func(context.Context) error) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "rate limiter wait aborted")
		}
	}
	if r.inflight != nil {
		if err := r.inflight.Acquire(ctx, 1); err != nil {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "waiting for a transport slot aborted")
		}
		defer r.inflight.Release(1)
	}
	if r.callTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && callCtx.Err() == context.DeadlineExceeded {
		return errors.Wrap(err, errors.ErrorTypeTimeout, fmt.Sprintf("transport call exceeded %s", r.callTimeout))
	}
	return err
}

// retryable retries transport failures unless the caller gave up.
func retryable(ctx context.Context) func(error) bool {
	return func(err error) bool {
		return ctx.Err() == nil && errors.IsRetryable(err)
	}
}

func (r *retryingFS) List(ctx context.Context, p string) ([]Entry, error) {
	var entries []Entry
	err := r.do(ctx, "list", p, func(ctx context.Context) error {
		var err error
		entries, err = r.next.List(ctx, p)
		return err
	})
	return entries, err
}

func (r *retryingFS) Exists(ctx context.Context, p string) (bool, error) {
	var exists bool
	err := r.do(ctx, "exists", p, func(ctx context.Context) error {
		var err error
		exists, err = r.next.Exists(ctx, p)
		return err
	})
	return exists, err
}

func (r *retryingFS) MkdirAll(ctx context.Context, dir string) error {
	return r.do(ctx, "mkdir", dir, func(ctx context.Context) error {
		return r.next.MkdirAll(ctx, dir)
	})
}

// Put is attempted once: the reader cannot be replayed after a partial upload.
func (r *retryingFS) Put(ctx context.Context, p string, body io.Reader) error {
	return r.call(ctx, func(ctx context.Context) error {
		return r.next.Put(ctx, p, body)
	})
}

func (r *retryingFS) Close() error {
	return r.next.Close()
}
