package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), Config{MaxAttempts: 3}, nil, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if got != 42 {
		t.Errorf("WithRetry() = %d; want 42", got)
	}
	if calls != 1 {
		t.Errorf("op called %d times; want 1", calls)
	}
}

func TestWithRetryRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), Config{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
	}, nil, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("WithRetry() = %q; want %q", got, "ok")
	}
	if calls != 3 {
		t.Errorf("op called %d times; want 3", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	}, nil, func() (int, error) {
		calls++
		return 0, errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Errorf("WithRetry() error = %v; want last attempt's error", err)
	}
	if calls != 3 {
		t.Errorf("op called %d times; want 3", calls)
	}
}

func TestWithRetryRespectsShouldRetry(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	_, err := WithRetry(context.Background(), Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
	}, func(err error) bool {
		return !errors.Is(err, permanent)
	}, func() (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("WithRetry() error = %v; want permanent", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times; want 1 for a non-retryable error", calls)
	}
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := WithRetry(ctx, Config{
			MaxAttempts:  10,
			InitialDelay: time.Hour,
		}, nil, func() (int, error) {
			calls++
			return 0, errTransient
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WithRetry() error = %v; want context.Canceled", err)
		}
	}()

	// Let the first attempt run, then cancel during the backoff wait.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WithRetry() did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("op called %d times; want 1", calls)
	}
}

func TestWithRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), Config{}, nil, func() (int, error) {
		calls++
		return 0, errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times; want at least one attempt", calls)
	}
}
