package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		Backoffs:    []time.Duration{time.Millisecond},
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	callCount := 0

	result, err := Retry(context.Background(), fastConfig(4), func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got %s", result)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	callCount := 0
	last := errors.New("attempt failed")

	_, err := Retry(context.Background(), fastConfig(4), func() (int, error) {
		callCount++
		return 0, last
	})

	if !errors.Is(err, last) {
		t.Errorf("expected last error, got %v", err)
	}
	if callCount != 4 {
		t.Errorf("expected 4 calls, got %d", callCount)
	}
}

func TestRetry_RetryIfFilter(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := fastConfig(4)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }
	callCount := 0

	_, err := Retry(context.Background(), cfg, func() (int, error) {
		callCount++
		return 0, permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("non-retryable error should stop after 1 call, got %d", callCount)
	}
}

func TestRetry_OnRetryReceivesSchedule(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 4,
		Backoffs:    []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
	}
	var got []time.Duration
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		got = append(got, backoff)
	}

	_, _ = Retry(context.Background(), cfg, func() (int, error) { return 0, errors.New("EOF") })

	want := cfg.Backoffs
	if len(got) != len(want) {
		t.Fatalf("expected %d retries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 4, Backoffs: []time.Duration{time.Hour}}
	callCount := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Retry(ctx, cfg, func() (int, error) {
		callCount++
		return 0, errors.New("broken pipe")
	})

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", callCount)
	}
}

func TestBackoffFor(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 250 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{3, 1500 * time.Millisecond},
		{7, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := backoffFor(tt.attempt, DefaultBackoffs); got != tt.want {
			t.Errorf("backoffFor(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
	if got := backoffFor(1, nil); got != 0 {
		t.Errorf("empty schedule should give 0, got %v", got)
	}
}

func TestNoRetry(t *testing.T) {
	callCount := 0
	_, _ = Retry(context.Background(), NoRetry(), func() (int, error) {
		callCount++
		return 0, errors.New("fail")
	})
	if callCount != 1 {
		t.Errorf("expected single attempt, got %d", callCount)
	}
}
