package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Schedule{0, time.Millisecond}, nil, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoExhaustsSchedule(t *testing.T) {
	schedule := Schedule{0, time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	opErr := errors.New("connection reset")

	calls := 0
	var delays []time.Duration
	err := Do(context.Background(), schedule, func(d time.Duration, _ error) {
		delays = append(delays, d)
	}, func() error {
		calls++
		return opErr
	})

	if calls != len(schedule) {
		t.Errorf("expected %d attempts, got %d", len(schedule), calls)
	}

	var ee *ExhaustedError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if ee.Attempts != len(schedule) {
		t.Errorf("expected %d attempts reported, got %d", len(schedule), ee.Attempts)
	}
	if !errors.Is(err, opErr) {
		t.Errorf("expected exhausted error to wrap %v, got %v", opErr, err)
	}

	// The first attempt has no delay, so notify fires once per remaining entry.
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(delays))
	}
	for i, d := range delays {
		if d != want[i] {
			t.Errorf("notification %d: expected delay %v, got %v", i, want[i], d)
		}
	}
}

func TestDoRecoversMidSchedule(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Schedule{0, time.Millisecond, time.Millisecond}, nil, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDoCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- Do(ctx, Schedule{0, time.Hour}, nil, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestDoCancellationNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Schedule{0, time.Millisecond}, nil, func() error {
		calls++
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("cancellation must not be retried, got %d attempts", calls)
	}
}

func TestDefaultSchedule(t *testing.T) {
	s := DefaultSchedule()
	want := []time.Duration{0, 5 * time.Second, 15 * time.Second, 30 * time.Second, 60 * time.Second, 120 * time.Second}
	if len(s) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(s))
	}
	for i, d := range s {
		if d != want[i] {
			t.Errorf("entry %d: expected %v, got %v", i, want[i], d)
		}
	}
}
