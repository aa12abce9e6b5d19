package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/report"
)

// ArticlePage shows one article with its comments
type ArticlePage struct {
	page
}

func NewArticleViewPage(site *Site) *ArticlePage {
	p := &ArticlePage{page: page{site: site, screen: ScreenArticle, path: "/article"}}
	p.load = func(ctx context.Context) error {
		return site.Driver.WaitVisible(ctx, browser.CSS(selArticleTitle))
	}
	return p
}

func (p *ArticlePage) Title(ctx context.Context) (string, error) {
	return report.StepValue(p.site.Recorder, "Get article title", func() (string, error) {
		return p.site.text(ctx, browser.CSS(selArticleTitle))
	})
}

func (p *ArticlePage) Body(ctx context.Context) (string, error) {
	return report.StepValue(p.site.Recorder, "Get article body", func() (string, error) {
		return p.site.text(ctx, browser.CSS(selArticleBody))
	})
}

// Tags returns the article's tag pills in display order
func (p *ArticlePage) Tags(ctx context.Context) ([]string, error) {
	snap, err := p.site.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Texts(selArticleTags), nil
}

// ClickEdit opens the editor prefilled with this article
func (p *ArticlePage) ClickEdit(ctx context.Context) (*EditArticlePage, error) {
	if err := p.clickStep(ctx, "Click edit article", browser.CSS(selEditButton)); err != nil {
		return nil, err
	}
	editor := NewEditArticlePage(p.site)
	if err := editor.waitForLoad(ctx); err != nil {
		return nil, err
	}
	return editor, nil
}

// DeleteArticle deletes the article; the app returns to the feed
func (p *ArticlePage) DeleteArticle(ctx context.Context) (*HomePage, error) {
	if err := p.clickStep(ctx, "Delete article", browser.CSS(selDeleteButton)); err != nil {
		return nil, err
	}
	return NewHomePage(p.site), nil
}

func (p *ArticlePage) ToggleFavorite(ctx context.Context) error {
	return p.clickStep(ctx, "Toggle favorite", browser.CSS(selFavoriteButton))
}

// IsFavorited reads the favorite button state (filled when favorited)
func (p *ArticlePage) IsFavorited(ctx context.Context) (bool, error) {
	loc := browser.CSS(selFavoriteButton)
	if err := p.site.waitVisible(ctx, loc, p.site.Timeouts.Explicit); err != nil {
		return false, err
	}
	snap, err := p.site.snapshot(ctx)
	if err != nil {
		return false, err
	}
	return snap.HasClass(loc, "btn-primary"), nil
}

func (p *ArticlePage) ToggleFollowAuthor(ctx context.Context) error {
	return p.clickStep(ctx, "Toggle follow author", browser.CSS(selFollowButton))
}

// AddComment posts a comment and waits until at least one comment is rendered
func (p *ArticlePage) AddComment(ctx context.Context, comment string) error {
	return p.site.step("Add comment: "+comment, func() error {
		if p.site.Logger != nil {
			p.site.Logger.Info().Str("comment", comment).Msg("Adding comment")
		}
		if err := p.site.Driver.SetValue(ctx, browser.CSS(selCommentTextarea), comment); err != nil {
			return err
		}
		if err := p.site.Driver.Click(ctx, browser.CSS(selPostComment)); err != nil {
			return err
		}
		return p.site.waitVisible(ctx, browser.CSS(selCommentCard), p.site.Timeouts.Explicit)
	})
}

// Comments returns the text of every rendered comment, oldest first
func (p *ArticlePage) Comments(ctx context.Context) ([]string, error) {
	return report.StepValue(p.site.Recorder, "Get all comments", func() ([]string, error) {
		if err := p.site.waitVisible(ctx, browser.CSS(selCommentCard), p.site.Timeouts.Explicit); err != nil {
			return nil, err
		}
		snap, err := p.site.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		comments := []string{}
		snap.Each(selCommentCard, func(_ int, card *goquery.Selection) {
			comments = append(comments, strings.TrimSpace(card.Find(selCommentText).First().Text()))
		})
		return comments, nil
	})
}

// DeleteComment deletes the first comment containing text; it is a no-op when none does
func (p *ArticlePage) DeleteComment(ctx context.Context, text string) error {
	return p.site.step("Delete comment containing: "+text, func() error {
		snap, err := p.site.snapshot(ctx)
		if err != nil {
			return err
		}
		if !snap.Exists(browser.WithText(selCommentCard, text)) {
			if p.site.Logger != nil {
				p.site.Logger.Warn().Str("text", text).Msg("No comment contains text")
			}
			return nil
		}
		trash := browser.WithText(selCommentCard, text).Within(selDeleteComment)
		if err := p.site.waitVisible(ctx, trash, p.site.Timeouts.Explicit); err != nil {
			return err
		}
		return p.site.Driver.Click(ctx, trash)
	})
}

func (p *ArticlePage) CommentCount(ctx context.Context) int {
	snap, err := p.site.snapshot(ctx)
	if err != nil {
		return 0
	}
	return snap.Count(browser.CSS(selCommentCard))
}

func (p *ArticlePage) clickStep(ctx context.Context, name string, loc browser.Locator) error {
	return p.site.step(name, func() error {
		if p.site.Logger != nil {
			p.site.Logger.Info().Str("target", loc.String()).Msg(name)
		}
		if err := p.site.waitVisible(ctx, loc, p.site.Timeouts.Explicit); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return p.site.Driver.Click(ctx, loc)
	})
}
