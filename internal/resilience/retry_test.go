package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "ok" {
		t.Errorf("val = %q, want %q", val, "ok")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, NewTransientError(errors.New("overloaded"), 529)
			}
			return 42, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 {
		t.Errorf("val = %d, want 42", val)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid request")
	_, err := Do(context.Background(), RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			return "", permanent
		})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (permanent errors must not retry)", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), RetryConfig{MaxAttempts: 4, InitialBackoff: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			return "", NewTransientError(errors.New("rate limited"), 429)
		})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestDoReturnsPromptlyAfterFinalAttempt(t *testing.T) {
	start := time.Now()
	_, err := Do(context.Background(), RetryConfig{MaxAttempts: 1, InitialBackoff: 500 * time.Millisecond},
		func(ctx context.Context) (string, error) {
			return "", NewTransientError(errors.New("rate limited"), 429)
		})
	if err == nil {
		t.Fatal("expected error")
	}
	// No backoff sleep after the last attempt; exhaustion surfaces
	// immediately.
	if elapsed := time.Since(start); elapsed >= 500*time.Millisecond {
		t.Errorf("exhaustion took %v, want well under the backoff delay", elapsed)
	}
}

func TestDoCustomShouldRetry(t *testing.T) {
	calls := 0
	special := errors.New("try again")
	_, err := Do(context.Background(), RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		ShouldRetry:    func(err error) bool { return errors.Is(err, special) },
	}, func(ctx context.Context) (string, error) {
		calls++
		return "", special
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, RetryConfig{MaxAttempts: 10, InitialBackoff: 50 * time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			cancel()
			return "", NewTransientError(errors.New("transient"), 503)
		})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (cancellation must stop retries)", calls)
	}
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	_, _ = Do(context.Background(), RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry:        func(attempt int, err error) { attempts = append(attempts, attempt) },
	}, func(ctx context.Context) (string, error) {
		return "", NewTransientError(errors.New("transient"), 503)
	})
	if len(attempts) != 2 {
		t.Fatalf("OnRetry called %d times, want 2", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("attempts = %v, want [1 2]", attempts)
	}
}

func TestComputeBackoffDoubles(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, Multiplier: 2, MaxBackoff: time.Minute})
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := computeBackoff(i, cfg); got != w {
			t.Errorf("computeBackoff(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestComputeBackoffCapped(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, Multiplier: 2, MaxBackoff: 3 * time.Second})
	if got := computeBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("computeBackoff(5) = %v, want cap %v", got, 3*time.Second)
	}
}

func TestComputeBackoffJitterBounds(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: 100 * time.Millisecond, Multiplier: 2, JitterFraction: 0.5})
	for i := 0; i < 100; i++ {
		got := computeBackoff(0, cfg)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("computeBackoff with 50%% jitter = %v, want within [50ms, 150ms]", got)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(RetryConfig{})
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.InitialBackoff != 500*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 500ms", cfg.InitialBackoff)
	}
	if cfg.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", cfg.MaxBackoff)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", cfg.Multiplier)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient wrapper", NewTransientError(errors.New("x"), 429), true},
		{"wrapped transient", errors.Join(errors.New("outer"), NewTransientError(errors.New("x"), 503)), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"io timeout", errors.New("read: i/o timeout"), true},
		{"plain error", errors.New("invalid api key"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
