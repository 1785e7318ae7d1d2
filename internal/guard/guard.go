// Package guard wraps calls to unreliable collaborators so that callers always
// get a usable value back: either the collaborator's answer or a local fallback
// tagged with the reason the call was abandoned.
package guard

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"

	"fanfirst-engagement-service/internal/domain"
)

// Result is the outcome of a guarded call. When Fallback is set, Value holds the
// fallback and Reason explains why.
type Result[T any] struct {
	Value    T
	Fallback bool
	Reason   string
	Err      error
}

// Policy bounds a guarded call.
type Policy struct {
	Service      string
	Timeout      time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Limiter is optional. A call that cannot get a token immediately falls back.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// DefaultPolicy is a single attempt with a three second budget.
func DefaultPolicy(service string) Policy {
	return Policy{
		Service:      service,
		Timeout:      3 * time.Second,
		MaxAttempts:  1,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}
}

// Call runs fn under p. validate, when non-nil, rejects replies that arrived but
// cannot be used. The whole call, retries included, never outlives p.Timeout,
// even when fn ignores ctx.
func Call[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), validate func(T) error, fallback T) Result[T] {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if p.Limiter != nil && !p.Limiter.Allow() {
		err := domain.RateLimited(p.Service)
		logger.Warn("guarded call skipped", "service", p.Service, "reason", "rate_limited")
		return Result[T]{Value: fallback, Fallback: true, Reason: domain.Reason(err), Err: err}
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	attempts := max(p.MaxAttempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		v, err := invoke(ctx, p.Service, fn)
		if err == nil && validate != nil {
			err = validate(v)
		}
		if err == nil {
			return Result[T]{Value: v}
		}
		lastErr = normalize(ctx, p.Service, err)
		if !domain.IsRetryable(lastErr) || attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = domain.TimedOut(p.Service, ctx.Err())
		case <-time.After(backoff(p, attempt)):
			continue
		}
		break
	}

	reason := domain.Reason(lastErr)
	logger.Warn("guarded call fell back", "service", p.Service, "reason", reason, "error", lastErr)
	return Result[T]{Value: fallback, Fallback: true, Reason: reason, Err: lastErr}
}

type outcome[T any] struct {
	value T
	err   error
}

// invoke returns when fn does or when ctx ends, whichever is first. A call left
// behind finishes into a buffered channel and is discarded.
func invoke[T any](ctx context.Context, service string, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome[T]{value: v, err: err}
	}()
	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, domain.TimedOut(service, ctx.Err())
	}
}

// normalize classifies raw errors so fallback reasons are consistent.
func normalize(ctx context.Context, service string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return domain.TimedOut(service, err)
	}
	return domain.Unavailable(service, err)
}

func backoff(p Policy, attempt int) time.Duration {
	delay := time.Duration(float64(p.InitialDelay) * math.Pow(2, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
