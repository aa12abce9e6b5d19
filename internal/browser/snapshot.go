package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot is a parsed copy of the document at one point in time
type Snapshot struct {
	doc *goquery.Document
}

// NewSnapshot parses html
func NewSnapshot(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Snapshot{doc: doc}, nil
}

// TakeSnapshot reads the current document from drv
func TakeSnapshot(ctx context.Context, drv Driver) (*Snapshot, error) {
	html, err := drv.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return NewSnapshot(html)
}

// Find returns the elements matching loc, in document order
func (s *Snapshot) Find(loc Locator) *goquery.Selection {
	sel := s.Outer(loc)
	if loc.Inner == "" {
		return sel
	}
	var nodes []*html.Node
	sel.Each(func(_ int, el *goquery.Selection) {
		if inner := el.Find(loc.Inner).First(); inner.Length() > 0 {
			nodes = append(nodes, inner.Get(0))
		}
	})
	return s.doc.FindNodes(nodes...)
}

// Match returns the first element matching loc's CSS and text that also has the
// Inner target, together with that target
func (s *Snapshot) Match(loc Locator) (outer, target *goquery.Selection, ok bool) {
	s.Outer(loc).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		t := el
		if loc.Inner != "" {
			t = el.Find(loc.Inner).First()
		}
		if t.Length() == 0 {
			return true
		}
		outer, target, ok = el, t, true
		return false
	})
	return outer, target, ok
}

// Outer returns the elements matching loc's CSS and text, ignoring Inner
func (s *Snapshot) Outer(loc Locator) *goquery.Selection {
	sel := s.doc.Find(loc.CSS)
	if loc.Text == "" {
		return sel
	}
	return sel.FilterFunction(func(_ int, el *goquery.Selection) bool {
		return loc.MatchesText(el.Text())
	})
}

// Each calls fn for every element matching css
func (s *Snapshot) Each(css string, fn func(i int, el *goquery.Selection)) {
	s.doc.Find(css).Each(fn)
}

// Exists reports whether any element matches loc
func (s *Snapshot) Exists(loc Locator) bool {
	return s.Find(loc).Length() > 0
}

// Count returns the number of matching elements
func (s *Snapshot) Count(loc Locator) int {
	return s.Find(loc).Length()
}

// Text returns the trimmed text of the first match
func (s *Snapshot) Text(loc Locator) (string, bool) {
	sel := s.Find(loc).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// Texts returns the trimmed, non-empty texts of all matches
func (s *Snapshot) Texts(css string) []string {
	out := []string{}
	s.doc.Find(css).Each(func(_ int, el *goquery.Selection) {
		if text := strings.TrimSpace(el.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// HasClass reports whether the first match carries class
func (s *Snapshot) HasClass(loc Locator, class string) bool {
	return s.Find(loc).First().HasClass(class)
}

// Attr returns an attribute of the first match
func (s *Snapshot) Attr(loc Locator, name string) (string, bool) {
	return s.Find(loc).First().Attr(name)
}
