package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"
)

// ChromeOptions configures the Chrome instance
type ChromeOptions struct {
	Headless     bool
	NoSandbox    bool
	WindowWidth  int
	WindowHeight int
	ExecPath     string

	// Implicit bounds every element lookup that has no earlier deadline
	Implicit time.Duration
	// PageLoad bounds navigation and reload
	PageLoad time.Duration

	Logger arbor.ILogger
}

// ChromeDriver is a Driver backed by chromedp. One instance owns one browser tab.
type ChromeDriver struct {
	ctx     context.Context
	cancel  []context.CancelFunc
	opts    ChromeOptions
	logger  arbor.ILogger
	nextRef atomic.Int64
}

// NewChromeDriver launches Chrome and opens a tab. The browser lives until Close.
func NewChromeDriver(opts ChromeOptions) (*ChromeDriver, error) {
	if opts.WindowWidth <= 0 || opts.WindowHeight <= 0 {
		opts.WindowWidth, opts.WindowHeight = 1920, 1080
	}
	if opts.Implicit <= 0 {
		opts.Implicit = 10 * time.Second
	}
	if opts.PageLoad <= 0 {
		opts.PageLoad = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		ctx:    browserCtx,
		cancel: []context.CancelFunc{cancelAlloc, cancelBrowser},
		opts:   opts,
		logger: opts.Logger,
	}

	// Start the browser now so launch failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	if d.logger != nil {
		d.logger.Info().
			Bool("headless", opts.Headless).
			Int("width", opts.WindowWidth).
			Int("height", opts.WindowHeight).
			Msg("Chrome started")
	}
	return d, nil
}

// Close shuts the browser down
func (d *ChromeDriver) Close() {
	if err := chromedp.Cancel(d.ctx); err != nil && d.logger != nil {
		d.logger.Warn().Err(err).Msg("Browser cancel returned error")
	}
	for i := len(d.cancel) - 1; i >= 0; i-- {
		d.cancel[i]()
	}
}

// run executes actions on the tab, bounded by ctx and by timeout
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	if d.logger != nil {
		d.logger.Debug().Str("url", url).Msg("Navigate")
	}
	if err := d.run(ctx, d.opts.PageLoad, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *ChromeDriver) Reload(ctx context.Context) error {
	if err := d.run(ctx, d.opts.PageLoad, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	return nil
}

func (d *ChromeDriver) Location(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, d.opts.Implicit, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

func (d *ChromeDriver) WaitVisible(ctx context.Context, loc Locator) error {
	sel, err := d.resolve(ctx, loc, true)
	if err != nil {
		return err
	}
	if err := d.run(ctx, d.opts.Implicit, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element %s not visible: %w", loc, err)
	}
	return nil
}

func (d *ChromeDriver) Visible(ctx context.Context, loc Locator) (bool, error) {
	if loc.Text == "" && loc.Inner == "" {
		// cheap existence check before asking for layout
		var nodes []*cdp.Node
		if err := d.run(ctx, d.opts.Implicit,
			chromedp.Nodes(loc.CSS, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		); err != nil {
			return false, fmt.Errorf("failed to query %s: %w", loc, err)
		}
		if len(nodes) == 0 {
			return false, nil
		}
	}

	var visible bool
	if err := d.run(ctx, d.opts.Implicit,
		chromedp.Evaluate(findScript(loc, "", true), &visible, returnByValue),
	); err != nil {
		return false, fmt.Errorf("failed to check visibility of %s: %w", loc, err)
	}
	return visible, nil
}

func (d *ChromeDriver) Click(ctx context.Context, loc Locator) error {
	sel, err := d.resolve(ctx, loc, true)
	if err != nil {
		return err
	}
	if err := d.run(ctx, d.opts.Implicit, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}
	return nil
}

func (d *ChromeDriver) SetValue(ctx context.Context, loc Locator, value string) error {
	sel, err := d.resolve(ctx, loc, true)
	if err != nil {
		return err
	}
	if err := d.run(ctx, d.opts.Implicit,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to set value of %s: %w", loc, err)
	}
	return nil
}

func (d *ChromeDriver) PressEnter(ctx context.Context, loc Locator) error {
	sel, err := d.resolve(ctx, loc, true)
	if err != nil {
		return err
	}
	if err := d.run(ctx, d.opts.Implicit, chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to press enter in %s: %w", loc, err)
	}
	return nil
}

func (d *ChromeDriver) Value(ctx context.Context, loc Locator) (string, error) {
	sel, err := d.resolve(ctx, loc, false)
	if err != nil {
		return "", err
	}
	var value string
	if err := d.run(ctx, d.opts.Implicit, chromedp.Value(sel, &value, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read value of %s: %w", loc, err)
	}
	return value, nil
}

func (d *ChromeDriver) HTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, d.opts.Implicit, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

func (d *ChromeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := d.run(ctx, d.opts.PageLoad, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// resolve turns a locator into a plain CSS selector. Text and Inner locators are matched in
// the page, and the matching element is tagged with a data-e2e-ref attribute. With
// visibleOnly, hidden matches are skipped so a rendered match later in the document wins.
func (d *ChromeDriver) resolve(ctx context.Context, loc Locator, visibleOnly bool) (string, error) {
	if loc.Text == "" && loc.Inner == "" {
		return loc.CSS, nil
	}

	ref := fmt.Sprintf("%d", d.nextRef.Add(1))
	var found bool
	err := d.run(ctx, d.opts.Implicit,
		chromedp.Poll(findScript(loc, ref, visibleOnly), &found,
			chromedp.WithPollingTimeout(d.opts.Implicit),
			chromedp.WithPollingInterval(200*time.Millisecond),
		),
	)
	if err != nil {
		return "", fmt.Errorf("no element matches %s: %w", loc, err)
	}
	return fmt.Sprintf(`[data-e2e-ref="%s"]`, ref), nil
}

func returnByValue(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithReturnByValue(true)
}

// findScript builds an expression returning true when an element matching loc
// exists (and, with visibleOnly, is rendered). A non-empty ref tags the match.
func findScript(loc Locator, ref string, visibleOnly bool) string {
	return fmt.Sprintf(`
		(() => {
			const want = %s, exact = %t, ref = %s, visibleOnly = %t, inner = %s;
			for (const el of document.querySelectorAll(%s)) {
				if (want !== "") {
					const t = (el.innerText || el.textContent || "").trim();
					if (exact ? t !== want : !t.includes(want)) continue;
				}
				const target = inner !== "" ? el.querySelector(inner) : el;
				if (!target) continue;
				if (visibleOnly && target.getClientRects().length === 0) continue;
				if (ref !== "") target.setAttribute("data-e2e-ref", ref);
				return true;
			}
			return false;
		})()
	`, jsString(loc.Text), loc.Exact, jsString(ref), visibleOnly, jsString(loc.Inner), jsString(loc.CSS))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
