package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLocatorExhausted is matched by every *LocatorError
var ErrLocatorExhausted = errors.New("no locator in chain matched")

// LocatorError reports a fallback chain in which no candidate became visible
type LocatorError struct {
	Action string
	Chain  []Locator
	Errs   []error
}

func (e *LocatorError) Error() string {
	tried := make([]string, 0, len(e.Chain))
	for _, l := range e.Chain {
		tried = append(tried, l.String())
	}
	msg := fmt.Sprintf("%s: no visible element for [%s]", e.Action, strings.Join(tried, " | "))
	if last := len(e.Errs) - 1; last >= 0 && e.Errs[last] != nil {
		msg += fmt.Sprintf(": %v", e.Errs[last])
	}
	return msg
}

func (e *LocatorError) Is(target error) bool {
	return target == ErrLocatorExhausted
}

// FirstVisible tries each locator in priority order, giving each at most
// perCandidate to become visible, and returns the first that does.
func FirstVisible(ctx context.Context, drv Driver, action string, perCandidate time.Duration, chain ...Locator) (Locator, error) {
	errs := make([]error, 0, len(chain))
	for _, loc := range chain {
		candidateCtx, cancel := context.WithTimeout(ctx, perCandidate)
		err := drv.WaitVisible(candidateCtx, loc)
		cancel()
		if err == nil {
			return loc, nil
		}
		if ctx.Err() != nil {
			return Locator{}, ctx.Err()
		}
		errs = append(errs, err)
	}
	return Locator{}, &LocatorError{Action: action, Chain: chain, Errs: errs}
}

// ClickFirst clicks the first visible locator of the chain
func ClickFirst(ctx context.Context, drv Driver, action string, perCandidate time.Duration, chain ...Locator) (Locator, error) {
	loc, err := FirstVisible(ctx, drv, action, perCandidate, chain...)
	if err != nil {
		return Locator{}, err
	}
	if err := drv.Click(ctx, loc); err != nil {
		return loc, fmt.Errorf("%s: click %s: %w", action, loc, err)
	}
	return loc, nil
}
