package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodlens/internal/domain"
	"foodlens/internal/retry"
)

var errTransient = domain.NewFault(domain.FaultNetwork, "upstream timeout", true, errors.New("timeout"))

func fastPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
		Exponential:  true,
	}
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("should succeed after k transient failures with attempts k+1", func(t *testing.T) {
		const k = 2
		calls := 0
		out := retry.Do(ctx, fastPolicy(k+1), func(ctx context.Context) (string, error) {
			calls++
			if calls <= k {
				return "", errTransient
			}
			return "ok", nil
		})
		if !out.OK || out.Value != "ok" {
			t.Fatalf("expected success, got %+v", out)
		}
		if out.Attempts != k+1 {
			t.Errorf("attempts = %d, want %d", out.Attempts, k+1)
		}
	})

	t.Run("should exhaust at maxAttempts on persistent transient errors", func(t *testing.T) {
		const n = 4
		calls := 0
		out := retry.Do(ctx, fastPolicy(n), func(ctx context.Context) (int, error) {
			calls++
			return 0, errTransient
		})
		if out.OK {
			t.Fatal("expected failure")
		}
		if out.Attempts != n || calls != n {
			t.Errorf("attempts = %d calls = %d, want %d", out.Attempts, calls, n)
		}
		if !errors.Is(out.Err, errTransient) {
			t.Errorf("expected last error preserved, got %v", out.Err)
		}
	})

	t.Run("should stop immediately on a non-retryable error", func(t *testing.T) {
		calls := 0
		out := retry.Do(ctx, fastPolicy(10), func(ctx context.Context) (int, error) {
			calls++
			return 0, domain.ErrInvalidImage
		})
		if out.OK || out.Attempts != 1 || calls != 1 {
			t.Errorf("expected single attempt, got attempts=%d calls=%d", out.Attempts, calls)
		}
	})

	t.Run("should stop retrying once the context is cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		p := retry.Policy{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2, Exponential: true}
		out := retry.Do(cctx, p, func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, errTransient
		})
		if out.OK {
			t.Fatal("expected failure")
		}
		if calls != 1 {
			t.Errorf("expected no further attempts after cancel, got %d", calls)
		}
	})

	t.Run("should report elapsed covering the inter-attempt delays", func(t *testing.T) {
		// Scenario: 3 attempts, 1ms then 2ms delays (exponential, mult 2).
		p := retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2, Exponential: true}
		calls := 0
		out := retry.Do(ctx, p, func(ctx context.Context) (int, error) {
			calls++
			if calls <= 2 {
				return 0, errTransient
			}
			return 42, nil
		})
		if !out.OK || out.Attempts != 3 {
			t.Fatalf("unexpected outcome %+v", out)
		}
		// Jitter can shave at most 25% off each delay.
		minElapsed := time.Duration(float64(1*time.Millisecond+2*time.Millisecond) * 0.75)
		if out.Elapsed < minElapsed {
			t.Errorf("elapsed = %v, want >= %v", out.Elapsed, minElapsed)
		}
	})

	t.Run("should clamp jittered delays to the max delay", func(t *testing.T) {
		// Every unclamped base delay would be >= 80ms; with the clamp no
		// sleep may exceed MaxDelay even at full positive jitter.
		p := retry.Policy{
			MaxAttempts:  4,
			InitialDelay: 80 * time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   4,
			Exponential:  true,
			Jitter:       1,
		}
		var stamps []time.Time
		out := retry.Do(ctx, p, func(ctx context.Context) (int, error) {
			stamps = append(stamps, time.Now())
			return 0, errTransient
		})
		if out.OK || out.Attempts != 4 {
			t.Fatalf("unexpected outcome %+v", out)
		}
		for i := 1; i < len(stamps); i++ {
			// Generous scheduling slack, still far below the 80ms base.
			if gap := stamps[i].Sub(stamps[i-1]); gap > 40*time.Millisecond {
				t.Errorf("delay %d was %v, cap is %v", i, gap, p.MaxDelay)
			}
		}
	})
}

func TestDoValue(t *testing.T) {
	ctx := context.Background()

	t.Run("should re-raise the last error with identity intact", func(t *testing.T) {
		_, err := retry.DoValue(ctx, fastPolicy(2), func(ctx context.Context) (int, error) {
			return 0, errTransient
		})
		if !errors.Is(err, errTransient) {
			t.Errorf("error identity lost: %v", err)
		}
		var f *domain.Fault
		if !errors.As(err, &f) || f.Kind != domain.FaultNetwork {
			t.Errorf("fault type lost: %v", err)
		}
	})

	t.Run("should return the bare value on success", func(t *testing.T) {
		v, err := retry.DoValue(ctx, fastPolicy(1), func(ctx context.Context) (string, error) {
			return "v", nil
		})
		if err != nil || v != "v" {
			t.Errorf("got %q, %v", v, err)
		}
	})
}

func TestBaseDelay(t *testing.T) {
	p := retry.Policy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Exponential:  true,
	}

	t.Run("should follow min(maxDelay, initial×mult^(i−1))", func(t *testing.T) {
		want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
		for i, w := range want {
			if got := retry.BaseDelay(p, i+1); got != w {
				t.Errorf("attempt %d: delay = %v, want %v", i+1, got, w)
			}
		}
	})

	t.Run("should use the initial delay unconditionally in constant mode", func(t *testing.T) {
		cp := p
		cp.Exponential = false
		for i := 1; i <= 6; i++ {
			if got := retry.BaseDelay(cp, i); got != time.Second {
				t.Errorf("attempt %d: delay = %v, want 1s", i, got)
			}
		}
	})
}

func TestDefaultClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"recoverable fault", errTransient, true},
		{"rate limited sentinel", domain.ErrRateLimited, true},
		{"non-recoverable fault", domain.NewFault(domain.FaultPermission, "denied", false, nil), false},
		{"quota exceeded", domain.ErrQuotaExceeded, false},
		{"context cancelled", context.Canceled, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := retry.DefaultClassify(tc.err); got != tc.want {
			t.Errorf("%s: classify = %v, want %v", tc.name, got, tc.want)
		}
	}
}
