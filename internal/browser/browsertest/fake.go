// Package browsertest provides a scripted, in-memory browser.Driver.
//
// Routes are hash routes rendered by functions, so a page can reflect state that
// changes between reloads. Clicks and Enter key presses are dispatched to
// registered handlers; clicking an anchor whose href is a hash route navigates.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/realworld-e2e/internal/browser"
)

// RenderFunc returns the body HTML of a route
type RenderFunc func(f *Fake) string

// ClickFunc handles a click; text is the trimmed text of the element matched by
// the locator's CSS (the container when the locator has an Inner part)
type ClickFunc func(f *Fake, text string) error

// EnterFunc handles Enter pressed in a field holding value
type EnterFunc func(f *Fake, value string) error

type clickHandler struct {
	loc browser.Locator
	fn  ClickFunc
}

// Fake is a browser.Driver over rendered HTML strings
type Fake struct {
	mu sync.Mutex

	baseURL string
	route   string
	routes  map[string]RenderFunc
	clicks  []clickHandler
	enters  map[string]EnterFunc
	values  map[string]string

	// Implicit bounds WaitVisible when ctx has no deadline
	Implicit time.Duration

	Navigations []string
	Reloads     int
	Clicked     []string
}

var _ browser.Driver = (*Fake)(nil)

// New creates a fake browser for an app served at baseURL
func New(baseURL string) *Fake {
	return &Fake{
		baseURL:  strings.TrimRight(baseURL, "/"),
		route:    "/",
		routes:   map[string]RenderFunc{},
		enters:   map[string]EnterFunc{},
		values:   map[string]string{},
		Implicit: 50 * time.Millisecond,
	}
}

// Route registers the renderer of a hash route such as "/login"
func (f *Fake) Route(path string, render RenderFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = render
}

// OnClick registers a handler for clicks on elements matching loc. An empty
// loc.Text matches any element selected by loc.CSS.
func (f *Fake) OnClick(loc browser.Locator, fn ClickFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, clickHandler{loc: loc, fn: fn})
}

// OnEnter registers a handler for Enter pressed in the field selected by css
func (f *Fake) OnEnter(css string, fn EnterFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enters[css] = fn
}

// Go switches to route without recording a navigation, for use in handlers
func (f *Fake) Go(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.route = route
	f.values = map[string]string{}
}

// CurrentRoute returns the current hash route
func (f *Fake) CurrentRoute() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.route
}

// Field returns what was typed into the field selected by css
func (f *Fake) Field(css string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[css]
}

// NavigationCount returns how many navigations happened so far
func (f *Fake) NavigationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Navigations)
}

// ReloadCount returns how many times the page was reloaded
func (f *Fake) ReloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reloads
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	route := "/"
	if _, fragment, ok := strings.Cut(url, "#"); ok && fragment != "" {
		route = fragment
	}

	f.mu.Lock()
	f.Navigations = append(f.Navigations, url)
	f.mu.Unlock()
	f.Go(route)
	return nil
}

func (f *Fake) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reloads++
	f.values = map[string]string{}
	return nil
}

func (f *Fake) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.baseURL + "/#" + f.route, nil
}

func (f *Fake) WaitVisible(ctx context.Context, loc browser.Locator) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Implicit)
		defer cancel()
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap, err := f.snapshot()
		if err != nil {
			return err
		}
		if snap.Exists(loc) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("element %s not visible: %w", loc, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (f *Fake) Visible(ctx context.Context, loc browser.Locator) (bool, error) {
	snap, err := f.snapshot()
	if err != nil {
		return false, err
	}
	return snap.Exists(loc), nil
}

func (f *Fake) Click(ctx context.Context, loc browser.Locator) error {
	snap, err := f.snapshot()
	if err != nil {
		return err
	}
	outer, el, ok := snap.Match(loc)
	if !ok {
		return fmt.Errorf("failed to click %s: no such element", loc)
	}
	text := strings.TrimSpace(outer.Text())

	f.mu.Lock()
	f.Clicked = append(f.Clicked, loc.String())
	var handler ClickFunc
	for _, h := range f.clicks {
		if h.loc.CSS == loc.CSS && h.loc.Inner == loc.Inner && h.loc.MatchesText(text) {
			handler = h.fn
			break
		}
	}
	f.mu.Unlock()

	if handler != nil {
		return handler(f, text)
	}
	if href, ok := el.Attr("href"); ok {
		if _, fragment, found := strings.Cut(href, "#"); found {
			f.Go(fragment)
		}
	}
	return nil
}

func (f *Fake) SetValue(ctx context.Context, loc browser.Locator, value string) error {
	if err := f.WaitVisible(ctx, loc); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[loc.CSS] = value
	return nil
}

func (f *Fake) PressEnter(ctx context.Context, loc browser.Locator) error {
	f.mu.Lock()
	handler := f.enters[loc.CSS]
	value := f.values[loc.CSS]
	f.mu.Unlock()

	if handler == nil {
		return nil
	}
	return handler(f, value)
}

// Value returns typed text, falling back to the rendered value attribute or textarea content
func (f *Fake) Value(ctx context.Context, loc browser.Locator) (string, error) {
	f.mu.Lock()
	typed, ok := f.values[loc.CSS]
	f.mu.Unlock()
	if ok {
		return typed, nil
	}

	snap, err := f.snapshot()
	if err != nil {
		return "", err
	}
	el := snap.Find(loc).First()
	if el.Length() == 0 {
		return "", fmt.Errorf("failed to read value of %s: no such element", loc)
	}
	if v, has := el.Attr("value"); has {
		return v, nil
	}
	return el.Text(), nil
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	render := f.routes[f.route]
	f.mu.Unlock()

	body := ""
	if render != nil {
		body = render(f)
	}
	return "<html><head></head><body>" + body + "</body></html>", nil
}

func (f *Fake) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("fake-screenshot"), nil
}

func (f *Fake) snapshot() (*browser.Snapshot, error) {
	html, err := f.HTML(context.Background())
	if err != nil {
		return nil, err
	}
	return browser.NewSnapshot(html)
}
