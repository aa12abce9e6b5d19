// Package pages models the Conduit UI as screens with transition methods.
//
// Every screen shares a Site (driver, app address, timeouts, poll settings and
// the step recorder). Transition methods return the screen the app lands on.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/common"
	"github.com/ternarybob/realworld-e2e/internal/poller"
	"github.com/ternarybob/realworld-e2e/internal/report"
)

var (
	// ErrTagNotFound is returned when a tag never shows up in the sidebar
	ErrTagNotFound = errors.New("tag not found in sidebar")
	// ErrArticleNotFound is returned when an article never shows up in the feed or under a tag
	ErrArticleNotFound = errors.New("article not found")
)

// Timeouts bound UI waits
type Timeouts struct {
	Implicit time.Duration // single element lookups, each fallback candidate
	Explicit time.Duration // waits for content inside a screen
	PageLoad time.Duration // navigation plus load hook
}

// PollSettings configures the eventual-consistency waits
type PollSettings struct {
	TagAttempts     int
	TagInterval     time.Duration
	ArticleAttempts int
	ArticleInterval time.Duration
	FallbackTags    int           // visible tags searched once direct polling is exhausted
	RefreshSettle   time.Duration // pause after a refresh before probing
	ClickSettle     time.Duration // pause after a click that re-renders a list
	APISyncDelay    time.Duration // pause after API writes the UI does not signal
}

// Site is the state shared by all screens of one scenario
type Site struct {
	Driver   browser.Driver
	BaseURL  string
	Logger   arbor.ILogger
	Timeouts Timeouts
	Poll     PollSettings
	Recorder *report.Recorder
}

// NewSite builds a Site from configuration
func NewSite(drv browser.Driver, config *common.Config, logger arbor.ILogger, recorder *report.Recorder) *Site {
	return &Site{
		Driver:  drv,
		BaseURL: strings.TrimRight(config.App.BaseURL, "/"),
		Logger:  logger,
		Timeouts: Timeouts{
			Implicit: config.Timeouts.ImplicitDuration(),
			Explicit: config.Timeouts.ExplicitDuration(),
			PageLoad: config.Timeouts.PageLoadDuration(),
		},
		Poll: PollSettings{
			TagAttempts:     config.Poller.TagAttempts,
			TagInterval:     config.Poller.TagIntervalDuration(),
			ArticleAttempts: config.Poller.ArticleAttempts,
			ArticleInterval: config.Poller.ArticleIntervalDuration(),
			FallbackTags:    config.Poller.FallbackTags,
			RefreshSettle:   config.Poller.RefreshSettleDuration(),
			ClickSettle:     time.Second,
			APISyncDelay:    config.Poller.APISyncDelayDuration(),
		},
		Recorder: recorder,
	}
}

// URL returns the address of a hash route
func (s *Site) URL(path string) string {
	return s.BaseURL + "/#" + path
}

// SettleAfterWrite pauses for the configured API sync delay. Use it only after
// writes whose effect the UI exposes no condition for.
func (s *Site) SettleAfterWrite(ctx context.Context) error {
	if s.Logger != nil {
		s.Logger.Debug().Dur("delay", s.Poll.APISyncDelay).Msg("Waiting for API data to sync")
	}
	return sleep(ctx, s.Poll.APISyncDelay)
}

// CaptureScreenshot attaches a PNG of the current page to the recorder
func (s *Site) CaptureScreenshot(ctx context.Context, name string) error {
	png, err := s.Driver.Screenshot(ctx)
	if err != nil {
		return err
	}
	s.Recorder.AttachFile(name, "image/png", ".png", png)
	return nil
}

func (s *Site) step(name string, fn func() error) error {
	return s.Recorder.Step(name, fn)
}

func (s *Site) snapshot(ctx context.Context) (*browser.Snapshot, error) {
	return browser.TakeSnapshot(ctx, s.Driver)
}

// waitVisible waits up to timeout for loc
func (s *Site) waitVisible(ctx context.Context, loc browser.Locator, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Driver.WaitVisible(waitCtx, loc)
}

// text waits for loc and returns its trimmed text
func (s *Site) text(ctx context.Context, loc browser.Locator) (string, error) {
	if err := s.waitVisible(ctx, loc, s.Timeouts.Explicit); err != nil {
		return "", err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}
	text, ok := snap.Text(loc)
	if !ok {
		return "", fmt.Errorf("element %s disappeared", loc)
	}
	return text, nil
}

// waitUntil re-checks cond every 100ms for up to timeout
func (s *Site) waitUntil(ctx context.Context, name string, timeout time.Duration, cond func(ctx context.Context) (bool, error)) error {
	const interval = 100 * time.Millisecond
	attempts := int(timeout/interval) + 1

	res := poller.WaitFor(ctx, poller.Options[bool]{
		Name:        name,
		MaxAttempts: attempts,
		Interval:    interval,
	}, cond, func(ok bool) bool { return ok })

	if res.Err != nil {
		return res.Err
	}
	if !res.Found {
		return fmt.Errorf("%s: condition not met within %s", name, timeout)
	}
	return nil
}

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
