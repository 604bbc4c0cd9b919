package loop

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryNonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	_, err := RetryWithPolicy(context.Background(), fastPolicy(3),
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("401 unauthorized")
		},
		ClassifyProviderError, nil)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
	if IsRetryExhausted(err) {
		t.Error("non-retryable errors should not be reported as exhaustion")
	}
}

func TestRetryRecoversAfterTransientErrors(t *testing.T) {
	calls := 0
	var retries []int
	result, err := RetryWithPolicy(context.Background(), fastPolicy(3),
		func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("429 too many requests")
			}
			return 42, nil
		},
		ClassifyProviderError,
		func(attempt int, _ time.Duration, _ error) {
			retries = append(retries, attempt)
		})

	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if len(retries) != 2 {
		t.Errorf("expected 2 retry notifications, got %v", retries)
	}
}

func TestRetryExhaustion(t *testing.T) {
	calls := 0
	_, err := RetryWithPolicy(context.Background(), fastPolicy(2),
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("503 service unavailable")
		},
		ClassifyProviderError, nil)

	if !IsRetryExhausted(err) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected initial call plus 2 retries, got %d", calls)
	}
}

func TestRetryMaybeClassIsCapped(t *testing.T) {
	calls := 0
	_, err := RetryWithPolicy(context.Background(), fastPolicy(10),
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("context deadline exceeded")
		},
		ClassifyProviderError, nil)

	if !IsRetryExhausted(err) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
	// "maybe" errors get at most two retries regardless of policy.
	if calls != 3 {
		t.Errorf("expected 3 calls for maybe-class error, got %d", calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		_, err := RetryWithPolicy(ctx, policy,
			func(context.Context) (string, error) {
				return "", errors.New("rate limit")
			},
			ClassifyProviderError, nil)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not honor cancellation")
	}
}

func TestCalculateDelayRetryAfterWins(t *testing.T) {
	policy := fastPolicy(3)
	policy.MaxDelay = 10 * time.Second

	err := WrapProviderError(errors.New("429 too many requests, Retry-After: 3"), 429, "3")
	delay := calculateDelay(policy, 0, err)
	if delay != 3*time.Second {
		t.Errorf("expected Retry-After hint of 3s, got %v", delay)
	}

	// The hint is still capped.
	err = WrapProviderError(errors.New("429"), 429, "300")
	if delay := calculateDelay(policy, 0, err); delay != policy.MaxDelay {
		t.Errorf("expected cap %v, got %v", policy.MaxDelay, delay)
	}
}

func TestCalculateDelayBackoff(t *testing.T) {
	policy := fastPolicy(5)
	plain := errors.New("500")

	d0 := calculateDelay(policy, 0, plain)
	d1 := calculateDelay(policy, 1, plain)
	if d0 != time.Millisecond {
		t.Errorf("attempt 0: expected initial delay, got %v", d0)
	}
	if d1 != 2*time.Millisecond {
		t.Errorf("attempt 1: expected doubled delay, got %v", d1)
	}
	if d5 := calculateDelay(policy, 5, plain); d5 != policy.MaxDelay {
		t.Errorf("expected delay capped at %v, got %v", policy.MaxDelay, d5)
	}
}

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		err  string
		want RetryClass
	}{
		{"429 too many requests", RetryClassRetryable},
		{"rate limit exceeded", RetryClassRetryable},
		{"500 internal server error", RetryClassRetryable},
		{"connection refused", RetryClassRetryable},
		{"context deadline exceeded", RetryClassMaybe},
		{"401 unauthorized", RetryClassNonRetryable},
		{"invalid api key", RetryClassNonRetryable},
		{"400 bad request", RetryClassNonRetryable},
		{"something else entirely", RetryClassNonRetryable},
	}

	for _, tt := range tests {
		if got := ClassifyProviderError(errors.New(tt.err)); got != tt.want {
			t.Errorf("ClassifyProviderError(%q) = %s, want %s", tt.err, got, tt.want)
		}
	}

	if got := ClassifyProviderError(nil); got != RetryClassNonRetryable {
		t.Errorf("nil error should be non-retryable, got %s", got)
	}
}
