// Package browser drives a web browser for page objects.
//
// Element addressing is by Locator (a CSS selector optionally narrowed by the
// element's text). Reads that do not need live layout go through a Snapshot of
// the current document, parsed with goquery.
package browser

import (
	"context"
	"fmt"
	"strings"
)

// Driver is the browser surface used by page objects. Every call blocks until it
// completes or ctx is done.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	// Location returns the current URL including the fragment
	Location(ctx context.Context) (string, error)

	// WaitVisible blocks until an element matching loc is visible
	WaitVisible(ctx context.Context, loc Locator) error
	// Visible reports whether a matching element is visible right now
	Visible(ctx context.Context, loc Locator) (bool, error)

	Click(ctx context.Context, loc Locator) error
	// SetValue clears the field and types value into it
	SetValue(ctx context.Context, loc Locator, value string) error
	PressEnter(ctx context.Context, loc Locator) error
	// Value returns the current value of an input or textarea
	Value(ctx context.Context, loc Locator) (string, error)

	// HTML returns the serialised current document
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Locator addresses an element by CSS selector, optionally narrowed to elements
// whose trimmed text contains (or with Exact, equals) Text. With Inner set the
// target is the first descendant of that element matching Inner.
type Locator struct {
	CSS   string
	Text  string
	Exact bool
	Inner string
}

// CSS builds a selector-only locator
func CSS(selector string) Locator {
	return Locator{CSS: selector}
}

// WithText builds a locator matching elements whose text contains text
func WithText(selector, text string) Locator {
	return Locator{CSS: selector, Text: text}
}

// WithExactText builds a locator matching elements whose trimmed text equals text
func WithExactText(selector, text string) Locator {
	return Locator{CSS: selector, Text: text, Exact: true}
}

// Within targets the first descendant matching inner
func (l Locator) Within(inner string) Locator {
	l.Inner = inner
	return l
}

func (l Locator) String() string {
	s := l.CSS
	switch {
	case l.Text == "":
	case l.Exact:
		s += fmt.Sprintf("[text=%q]", l.Text)
	default:
		s += fmt.Sprintf("[text*=%q]", l.Text)
	}
	if l.Inner != "" {
		s += " >> " + l.Inner
	}
	return s
}

// MatchesText applies the locator's text condition to an element's text
func (l Locator) MatchesText(text string) bool {
	if l.Text == "" {
		return true
	}
	text = strings.TrimSpace(text)
	if l.Exact {
		return text == l.Text
	}
	return strings.Contains(text, l.Text)
}
