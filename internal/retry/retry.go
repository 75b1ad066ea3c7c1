package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Schedule is an ordered list of delays to wait before each attempt.
// The number of attempts equals the length of the schedule; a zero entry
// means the attempt runs immediately.
type Schedule []time.Duration

// DefaultSchedule returns the escalating delay schedule used against the
// archive: an immediate first attempt followed by increasingly long waits.
func DefaultSchedule() Schedule {
	return Schedule{
		0,
		5 * time.Second,
		15 * time.Second,
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
	}
}

// ExhaustedError reports that every attempt in the schedule failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: exceeded %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Notify is called before each delayed attempt with the upcoming delay and
// the error that triggered the retry.
type Notify func(delay time.Duration, err error)

// Do runs op once per schedule entry until it succeeds, sleeping for the
// entry's delay first. Context cancellation aborts immediately, during a
// wait or between attempts, and is never retried. When the schedule is
// exhausted Do returns an *ExhaustedError wrapping the last error.
func Do(ctx context.Context, s Schedule, notify Notify, op func() error) error {
	if len(s) == 0 {
		s = DefaultSchedule()
	}

	var last error
	for _, delay := range s {
		if delay > 0 {
			if notify != nil {
				notify(delay, last)
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		last = err
	}

	return &ExhaustedError{Attempts: len(s), Last: last}
}
