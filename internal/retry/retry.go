// Package retry executes fallible operations with capped, jittered
// exponential backoff and returns a tagged outcome instead of panicking
// or losing the attempt count.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"foodlens/internal/domain"
)

// DefaultJitter is the symmetric jitter fraction applied to exponential
// delays. Empirical default, configurable per policy; not load-bearing.
const DefaultJitter = 0.25

// Policy configures one retry sequence. Immutable; build one per call-site
// category (network, processing, critical) and reuse it.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Exponential  bool
	// Jitter is the symmetric perturbation fraction for exponential delays.
	// Zero means DefaultJitter; negative disables jitter.
	Jitter float64
	// Classify reports whether an error is worth retrying. Nil selects
	// DefaultClassify.
	Classify func(error) bool
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = p.InitialDelay
	}
	if p.Jitter == 0 {
		p.Jitter = DefaultJitter
	}
	if p.Classify == nil {
		p.Classify = DefaultClassify
	}
	return p
}

// Outcome is the result of an executed retry sequence. Attempts counts the
// invocations actually made, including the final failing one.
type Outcome[T any] struct {
	OK       bool
	Value    T
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// Operation is the caller-supplied fallible call.
type Operation[T any] func(ctx context.Context) (T, error)

// Do runs op under p. It never returns a Go error on exhaustion; the
// outcome carries the last error. Cancelling ctx aborts the inter-attempt
// sleep and ends the sequence with the last operation error.
func Do[T any](ctx context.Context, p Policy, op Operation[T]) Outcome[T] {
	p = p.normalized()
	start := time.Now()

	var lastErr error
	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return Outcome[T]{OK: true, Value: v, Attempts: attempt, Elapsed: time.Since(start)}
		}
		lastErr = err

		if attempt >= p.MaxAttempts || !p.Classify(err) {
			return Outcome[T]{Err: lastErr, Attempts: attempt, Elapsed: time.Since(start)}
		}
		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return Outcome[T]{Err: lastErr, Attempts: attempt, Elapsed: time.Since(start)}
		}
	}
}

// DoValue is the convenience form for callers that want a bare value: on
// failure it re-raises the last error unchanged, so errors.Is/As still
// match upstream.
func DoValue[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	out := Do(ctx, p, op)
	if out.OK {
		return out.Value, nil
	}
	var zero T
	return zero, out.Err
}

// BaseDelay is the pre-jitter delay for the given attempt (1-based):
// min(MaxDelay, InitialDelay × Multiplier^(attempt−1)) for exponential
// policies, InitialDelay otherwise.
func BaseDelay(p Policy, attempt int) time.Duration {
	p = p.normalized()
	if !p.Exponential {
		return p.InitialDelay
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
	if d > p.MaxDelay || d < 0 { // overflow guard
		d = p.MaxDelay
	}
	return d
}

// delay applies jitter to the base delay and clamps the result to
// [0, MaxDelay]. Constant (non-exponential) policies are not jittered.
func (p Policy) delay(attempt int) time.Duration {
	base := BaseDelay(p, attempt)
	if !p.Exponential || p.Jitter < 0 || base <= 0 {
		return base
	}
	jit := time.Duration((rand.Float64()*2 - 1) * p.Jitter * float64(base))
	d := base + jit
	if d < 0 {
		return 0
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DefaultClassify treats domain-recoverable faults and network timeouts as
// transient. Everything else, including context cancellation, is terminal.
func DefaultClassify(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return domain.Recoverable(err)
}
