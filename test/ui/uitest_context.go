// uitest_context.go - Shared UI test context and helpers for the RealWorld suite
// This provides UITestContext and helper functions used by all UI tests.
// NOTE: This is NOT a test file - it contains shared test infrastructure.

package ui

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/pages"
	"github.com/ternarybob/realworld-e2e/internal/poller"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld"
	"github.com/ternarybob/realworld-e2e/test/common"
)

// MaxUITestTimeout bounds one UI scenario end to end
const MaxUITestTimeout = 5 * time.Minute

// UITestContext holds shared state for UI tests
type UITestContext struct {
	T      *testing.T
	Env    *common.TestEnvironment
	Ctx    context.Context
	Driver *browser.ChromeDriver
	Site   *pages.Site

	// API is authenticated as the configured test user
	API *realworld.Client

	cleanup       []func()
	screenshotNum int
}

// requireUI skips unless REALWORLD_UI=1; UI scenarios need Chrome and a running app
func requireUI(t *testing.T) {
	t.Helper()
	if os.Getenv("REALWORLD_UI") != "1" {
		t.Skip("set REALWORLD_UI=1 to run browser scenarios against a live RealWorld app")
	}
}

// NewUITestContext creates a new UI test context with browser, site and API session
func NewUITestContext(t *testing.T, timeout time.Duration) *UITestContext {
	requireUI(t)

	env := common.Setup(t)
	cfg := env.Config

	ctx, cancelTimeout := context.WithTimeout(context.Background(), timeout)

	drv, err := browser.NewChromeDriver(browser.ChromeOptions{
		Headless:     cfg.Browser.Headless,
		NoSandbox:    cfg.Browser.NoSandbox,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
		ExecPath:     cfg.Browser.ExecPath,
		Implicit:     cfg.Timeouts.ImplicitDuration(),
		PageLoad:     cfg.Timeouts.PageLoadDuration(),
		Logger:       env.Logger,
	})
	if err != nil {
		cancelTimeout()
		t.Fatalf("Failed to start browser: %v", err)
	}

	utc := &UITestContext{
		T:      t,
		Env:    env,
		Ctx:    ctx,
		Driver: drv,
		Site:   pages.NewSite(drv, cfg, env.Logger, env.Recorder),
		API:    env.AuthenticatedClient(t),
	}

	// Run in reverse order (LIFO)
	utc.cleanup = append(utc.cleanup, cancelTimeout)
	utc.cleanup = append(utc.cleanup, drv.Close)

	return utc
}

// Cleanup releases all resources, taking a screenshot first when the test failed. Call this with defer.
func (utc *UITestContext) Cleanup() {
	if utc.T.Failed() {
		utc.Log("=== TEST RESULT: FAIL ===")
		if err := utc.Site.CaptureScreenshot(context.Background(), "failure"); err != nil {
			utc.T.Logf("Warning: failed to capture failure screenshot: %v", err)
		}
	} else {
		utc.Log("=== TEST RESULT: PASS ===")
	}

	for i := len(utc.cleanup) - 1; i >= 0; i-- {
		utc.cleanup[i]()
	}
}

// Log writes a message to the test log and the test output
func (utc *UITestContext) Log(format string, args ...interface{}) {
	utc.T.Helper()
	utc.Env.LogTest(utc.T, format, args...)
}

// Screenshot attaches a sequentially numbered screenshot to the report
func (utc *UITestContext) Screenshot(name string) {
	utc.screenshotNum++
	label := fmt.Sprintf("%02d_%s", utc.screenshotNum, name)
	if err := utc.Site.CaptureScreenshot(utc.Ctx, label); err != nil {
		utc.T.Logf("Warning: failed to capture screenshot %s: %v", label, err)
	}
}

// LoginAsTestUser opens the login screen and signs in as the configured user
func (utc *UITestContext) LoginAsTestUser() *pages.HomePage {
	utc.T.Helper()
	login := pages.NewLoginPage(utc.Site)
	require.NoError(utc.T, login.Open(utc.Ctx), "Failed to open login page")

	user := utc.Env.Config.User
	home, err := login.Login(utc.Ctx, user.Email, user.Password)
	require.NoError(utc.T, err, "Failed to submit login form")

	// The app stores the token asynchronously; wait for the signed-in nav before navigating
	res := poller.WaitFor(utc.Ctx, poller.Options[bool]{
		Name:        "signed-in navigation",
		MaxAttempts: utc.Env.Config.Poller.TagAttempts,
		Interval:    time.Second,
		Logger:      utc.Env.Logger,
	}, func(ctx context.Context) (bool, error) {
		return home.IsUserLoggedIn(ctx), nil
	}, func(loggedIn bool) bool { return loggedIn })
	require.True(utc.T, res.Found, "User menu should be visible after login")

	require.NoError(utc.T, home.Open(utc.Ctx), "Failed to open home page")
	return home
}
