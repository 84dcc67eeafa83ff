package wait

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntilImmediateSuccess(t *testing.T) {
	config := Config{
		Interval:    10 * time.Millisecond,
		MaxInterval: 50 * time.Millisecond,
		Timeout:     1 * time.Second,
	}

	callCount := 0
	err := Until(context.Background(), config, func(ctx context.Context) (bool, error) {
		callCount++
		return true, nil
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("Expected 1 call, got %d", callCount)
	}
}

func TestUntilSuccessAfterPolls(t *testing.T) {
	config := Config{
		Interval:    5 * time.Millisecond,
		MaxInterval: 20 * time.Millisecond,
		Timeout:     1 * time.Second,
	}

	callCount := 0
	err := Until(context.Background(), config, func(ctx context.Context) (bool, error) {
		callCount++
		if callCount < 3 {
			return false, errors.New("options not populated")
		}
		return true, nil
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("Expected 3 calls, got %d", callCount)
	}
}

func TestUntilTimeoutKeepsLastError(t *testing.T) {
	config := Config{
		Interval:    5 * time.Millisecond,
		MaxInterval: 10 * time.Millisecond,
		Timeout:     50 * time.Millisecond,
	}

	cause := errors.New("select not found")
	start := time.Now()
	err := Until(context.Background(), config, func(ctx context.Context) (bool, error) {
		return false, cause
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected last error to be wrapped, got %v", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected wait to stop near 50ms, took %v", elapsed)
	}
}

func TestUntilParentCancellation(t *testing.T) {
	config := Config{
		Interval:    20 * time.Millisecond,
		MaxInterval: 20 * time.Millisecond,
		Timeout:     5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	err := Until(ctx, config, func(ctx context.Context) (bool, error) {
		callCount++
		if callCount == 2 {
			cancel()
		}
		return false, nil
	})
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSettle(t *testing.T) {
	start := time.Now()
	if err := Settle(context.Background(), 20*time.Millisecond, "test"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Expected Settle to wait for the full duration")
	}

	if err := Settle(context.Background(), 0, "noop"); err != nil {
		t.Errorf("Expected zero duration to return immediately, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Settle(ctx, time.Hour, "cancelled"); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCalculateBackoffDelay(t *testing.T) {
	baseDelay := 10 * time.Millisecond
	maxDelay := 100 * time.Millisecond

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 10 * time.Millisecond},
		{1, 20 * time.Millisecond},
		{2, 40 * time.Millisecond},
		{3, 80 * time.Millisecond},
		{4, 100 * time.Millisecond},
		{35, 100 * time.Millisecond},  // Large attempt should not overflow
		{100, 100 * time.Millisecond}, // Very large attempt should not overflow
	}

	for _, test := range tests {
		result := calculateBackoffDelay(test.attempt, baseDelay, maxDelay)
		if result != test.expected {
			t.Errorf("calculateBackoffDelay(%d, %v, %v) = %v, expected %v",
				test.attempt, baseDelay, maxDelay, result, test.expected)
		}
	}
}
