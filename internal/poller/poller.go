// Package poller waits for eventually consistent UI state.
//
// A probe observes the current state, a predicate decides whether it is the
// wanted one. Between failed probes an optional refresh hook runs (typically a
// page reload) followed by a fixed interval. The loop is bounded by MaxAttempts
// and by the context; exhaustion is reported in the Result, not as an error, so
// the caller decides whether it is fatal.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// Options configures one wait
type Options[T any] struct {
	Name        string        // used in log lines, e.g. "tag:testing"
	MaxAttempts int           // total probes including the first; values < 1 mean 1
	Interval    time.Duration // sleep before each retry probe

	// OnRetry runs before the sleep of every retry round (reload + load wait).
	// Its error ends the wait.
	OnRetry func(ctx context.Context) error

	// Describe renders an observed state for the per-round log line
	Describe func(T) string

	Logger arbor.ILogger

	// Budget, when set, is charged one attempt per probe and shared with other waits
	Budget *Budget
}

// Result of a wait
type Result[T any] struct {
	Found    bool
	Attempts int
	Last     T     // last observed state
	Err      error // context, probe or refresh error that ended the wait early
	Elapsed  time.Duration
}

// Exhausted reports whether the wait ran out of attempts without an error
func (r Result[T]) Exhausted() bool {
	return !r.Found && r.Err == nil
}

// WaitFor probes until pred holds, attempts run out or ctx is done.
// A predicate that already holds on the first probe returns without waiting.
func WaitFor[T any](ctx context.Context, opts Options[T], probe func(ctx context.Context) (T, error), pred func(T) bool) Result[T] {
	start := time.Now()
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var res Result[T]
	finish := func() Result[T] {
		res.Elapsed = time.Since(start)
		return res
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !opts.Budget.Take() {
			break
		}

		if attempt > 1 {
			if opts.OnRetry != nil {
				if err := opts.OnRetry(ctx); err != nil {
					res.Err = fmt.Errorf("%s: refresh before attempt %d failed: %w", opts.Name, attempt, err)
					return finish()
				}
			}
			if err := sleep(ctx, opts.Interval); err != nil {
				res.Err = err
				return finish()
			}
		}

		state, err := probe(ctx)
		res.Attempts = attempt
		res.Last = state
		if err != nil {
			if ctx.Err() != nil {
				res.Err = ctx.Err()
				return finish()
			}
			// a failed probe counts as "not yet"
			logRound(opts, attempt, maxAttempts, fmt.Sprintf("probe error: %v", err))
			continue
		}

		if pred(state) {
			res.Found = true
			if opts.Logger != nil {
				opts.Logger.Debug().
					Str("wait", opts.Name).
					Int("attempt", attempt).
					Dur("elapsed", time.Since(start)).
					Msg("Condition met")
			}
			return finish()
		}

		observed := ""
		if opts.Describe != nil {
			observed = opts.Describe(state)
		}
		logRound(opts, attempt, maxAttempts, observed)
	}

	if opts.Logger != nil {
		opts.Logger.Warn().
			Str("wait", opts.Name).
			Int("attempts", res.Attempts).
			Dur("elapsed", time.Since(start)).
			Msg("Condition not met, attempts exhausted")
	}
	return finish()
}

func logRound[T any](opts Options[T], attempt, maxAttempts int, observed string) {
	if opts.Logger == nil {
		return
	}
	opts.Logger.Info().
		Str("wait", opts.Name).
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Str("observed", observed).
		Msg("Condition not met yet")
}

// sleep waits d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
