package pages

import (
	"context"
	"strings"
)

// Screen identifies which Conduit screen a page object models
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenHome
	ScreenArticle
	ScreenEditor
	ScreenNewArticle
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenHome:
		return "home"
	case ScreenArticle:
		return "article"
	case ScreenEditor:
		return "editor"
	case ScreenNewArticle:
		return "new article"
	default:
		return "unknown"
	}
}

// page is the part shared by every screen: a hash route and a load hook
type page struct {
	site   *Site
	screen Screen
	path   string
	load   func(ctx context.Context) error
}

// Screen returns the screen variant
func (p *page) Screen() Screen {
	return p.screen
}

// URL returns the address of the screen
func (p *page) URL() string {
	return p.site.URL(p.path)
}

// Open navigates to the screen and waits until it has loaded
func (p *page) Open(ctx context.Context) error {
	return p.site.step("Open "+p.path+" page", func() error {
		if p.site.Logger != nil {
			p.site.Logger.Info().Str("url", p.URL()).Msg("Opening page")
		}
		if err := p.site.Driver.Navigate(ctx, p.URL()); err != nil {
			return err
		}
		return p.waitForLoad(ctx)
	})
}

func (p *page) waitForLoad(ctx context.Context) error {
	if p.load == nil {
		return nil
	}
	loadCtx, cancel := context.WithTimeout(ctx, p.site.Timeouts.PageLoad)
	defer cancel()
	return p.load(loadCtx)
}

// AtPage reports whether the browser is on this screen's route
func (p *page) AtPage(ctx context.Context) (bool, error) {
	location, err := p.site.Driver.Location(ctx)
	if err != nil {
		return false, err
	}
	return routeMatches(hashRoute(location), p.path), nil
}

// hashRoute extracts the route after '#', "/" when there is none
func hashRoute(location string) string {
	_, route, ok := strings.Cut(location, "#")
	if !ok || route == "" {
		return "/"
	}
	return route
}

func routeMatches(route, path string) bool {
	if path == "/" {
		return route == "/"
	}
	return route == path || strings.HasPrefix(route, path+"/")
}
