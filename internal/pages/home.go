package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/poller"
	"github.com/ternarybob/realworld-e2e/internal/report"
)

// HomePage is the global feed with the popular tags sidebar
type HomePage struct {
	page
}

func NewHomePage(site *Site) *HomePage {
	h := &HomePage{page: page{site: site, screen: ScreenHome, path: "/"}}
	h.load = h.waitForContent
	return h
}

func (h *HomePage) waitForContent(ctx context.Context) error {
	if err := h.site.Driver.WaitVisible(ctx, browser.CSS(selContainer)); err != nil {
		return err
	}
	// An empty feed is a valid state
	if err := h.site.waitVisible(ctx, browser.CSS(selArticlePreview), h.site.Timeouts.Explicit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if h.site.Logger != nil {
			h.site.Logger.Warn().Msg("No articles found on page load, which may be expected")
		}
	}
	return nil
}

// RefreshAndWaitForContent reloads the feed and pauses for late data
func (h *HomePage) RefreshAndWaitForContent(ctx context.Context) error {
	return h.site.step("Refresh page and wait for content", func() error {
		if err := h.site.Driver.Navigate(ctx, h.URL()); err != nil {
			return err
		}
		if err := h.waitForLoad(ctx); err != nil {
			return err
		}
		return sleep(ctx, h.site.Poll.RefreshSettle)
	})
}

// ClickNewArticle opens the editor through whichever "new article" link this build renders
func (h *HomePage) ClickNewArticle(ctx context.Context) (*NewArticlePage, error) {
	err := h.site.step("Click on 'New Article' link", func() error {
		_, err := browser.ClickFirst(ctx, h.site.Driver, "open new article editor", h.site.Timeouts.Implicit,
			browser.CSS(selEditorLink),
			browser.WithText(selNavLink, "New Article"),
			browser.WithText(selAnyLink, "New Post"),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	editor := NewNewArticlePage(h.site)
	if err := editor.waitForLoad(ctx); err != nil {
		return nil, err
	}
	return editor, nil
}

// VisibleTags returns the non-empty sidebar tags; an absent sidebar yields none
func (h *HomePage) VisibleTags(ctx context.Context) ([]string, error) {
	if err := h.site.waitVisible(ctx, browser.CSS(selPopularTags), h.site.Timeouts.Explicit); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if h.site.Logger != nil {
			h.site.Logger.Warn().Err(err).Msg("No tags found in sidebar")
		}
		return []string{}, nil
	}

	snap, err := h.site.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	tags := snap.Texts(selTagPills)
	if h.site.Logger != nil {
		h.site.Logger.Debug().Int("count", len(tags)).Msg("Found visible tags")
	}
	return tags, nil
}

// WaitForTag polls the sidebar, refreshing between attempts, until tag is listed.
// It reports false when the attempts run out.
func (h *HomePage) WaitForTag(ctx context.Context, tag string) (bool, error) {
	return report.StepValue(h.site.Recorder, "Wait for tag to appear in sidebar: "+tag, func() (bool, error) {
		want := strings.TrimSpace(tag)
		res := poller.WaitFor(ctx, poller.Options[[]string]{
			Name:        "tag:" + want,
			MaxAttempts: h.site.Poll.TagAttempts,
			Interval:    h.site.Poll.TagInterval,
			OnRetry:     h.RefreshAndWaitForContent,
			Describe:    describeList,
			Logger:      h.site.Logger,
		}, h.VisibleTags, func(tags []string) bool {
			for _, t := range tags {
				if t == want {
					return true
				}
			}
			return false
		})
		return res.Found, res.Err
	})
}

// ClickOnTag waits for tag in the sidebar and filters the feed by it
func (h *HomePage) ClickOnTag(ctx context.Context, tag string) error {
	return h.site.step("Click on tag: "+tag, func() error {
		found, err := h.WaitForTag(ctx, tag)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %q after %d attempts", ErrTagNotFound, tag, h.site.Poll.TagAttempts)
		}
		return h.selectTag(ctx, tag)
	})
}

// selectTag clicks a tag known to be listed and waits for the filtered feed
func (h *HomePage) selectTag(ctx context.Context, tag string) error {
	pill := browser.WithExactText(selTagPills, tag)
	if err := h.site.waitVisible(ctx, pill, h.site.Timeouts.Explicit); err != nil {
		return err
	}
	if err := h.site.Driver.Click(ctx, pill); err != nil {
		return err
	}
	if err := sleep(ctx, h.site.Poll.ClickSettle); err != nil {
		return err
	}

	if err := h.site.waitVisible(ctx, browser.WithText(selActiveTab, tag), h.site.Timeouts.Implicit); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if h.site.Logger != nil {
			h.site.Logger.Warn().Str("tag", tag).Msg("Active tag indicator not found, but continuing")
		}
	}
	return nil
}

// ArticleTitles returns the titles of the listed previews in feed order
func (h *HomePage) ArticleTitles(ctx context.Context) ([]string, error) {
	if err := h.site.waitVisible(ctx, browser.CSS(selArticlePreview), h.site.Timeouts.Explicit); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if h.site.Logger != nil {
			h.site.Logger.Warn().Msg("No articles found")
		}
		return []string{}, nil
	}

	snap, err := h.site.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	titles := []string{}
	snap.Each(selArticlePreview, func(_ int, preview *goquery.Selection) {
		heading := preview.Find(selPreviewTitle).First()
		if heading.Length() == 0 {
			heading = preview.Find(selPreviewLinkH1).First()
		}
		if title := strings.TrimSpace(heading.Text()); title != "" {
			titles = append(titles, title)
		}
	})
	return titles, nil
}

// ArticleCount returns the number of previews currently rendered
func (h *HomePage) ArticleCount(ctx context.Context) int {
	snap, err := h.site.snapshot(ctx)
	if err != nil {
		if h.site.Logger != nil {
			h.site.Logger.Warn().Err(err).Msg("Error getting article count")
		}
		return 0
	}
	return snap.Count(browser.CSS(selArticlePreview))
}

// ClickOnArticle waits for the article and opens it
func (h *HomePage) ClickOnArticle(ctx context.Context, title string) (*ArticlePage, error) {
	err := h.site.step("Click on article with title: "+title, func() error {
		found, err := h.WaitForArticle(ctx, title)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrArticleNotFound, title)
		}
		preview := browser.WithText(selArticlePreview, title)
		_, err = browser.ClickFirst(ctx, h.site.Driver, "open article "+title, h.site.Timeouts.Explicit,
			preview.Within(selPreviewTitle),
			preview.Within(selPreviewLinkH1),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	article := NewArticleViewPage(h.site)
	if err := article.waitForLoad(ctx); err != nil {
		return nil, err
	}
	return article, nil
}

// IsUserLoggedIn reports whether the profile link of a signed-in user is shown
func (h *HomePage) IsUserLoggedIn(ctx context.Context) bool {
	visible, err := h.site.Driver.Visible(ctx, browser.CSS(selUserMenuLink))
	return err == nil && visible
}

// ArticlesByTag filters the feed by tag and returns the listed titles
func (h *HomePage) ArticlesByTag(ctx context.Context, tag string) ([]string, error) {
	if err := h.ClickOnTag(ctx, tag); err != nil {
		return nil, err
	}
	return h.ArticleTitles(ctx)
}

func describeList(items []string) string {
	if len(items) > 10 {
		items = items[:10]
	}
	return "[" + strings.Join(items, ", ") + "]"
}
