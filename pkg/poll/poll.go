package poll

import (
	"context"
	"fmt"
	"time"
)

// Clock is the subset of github.com/raulk/clock.Clock the polling loops need.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type Options struct {
	// Stage names the wait in timeout errors and logs.
	Stage    string
	Timeout  time.Duration
	Interval time.Duration
}

type TimeoutError struct {
	Stage    string
	Timeout  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s (%d polls)", e.Stage, e.Timeout, e.Attempts)
}

// Func is called once per poll and reports whether the awaited condition has been reached.
type Func func(ctx context.Context) (bool, error)

// Until calls fn every opts.Interval until it reports done, returns an error, or opts.Timeout
// has elapsed on clk. A timeout is reported as *TimeoutError.
func Until(ctx context.Context, clk Clock, opts Options, fn Func) error {
	deadline := clk.Now().Add(opts.Timeout)
	attempts := 0

	for clk.Now().Before(deadline) {
		attempts++
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if err := Sleep(ctx, clk, opts.Interval); err != nil {
			return err
		}
	}

	return &TimeoutError{Stage: opts.Stage, Timeout: opts.Timeout, Attempts: attempts}
}

// Sleep blocks for d on clk, returning early with the context error if ctx is done.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
