package pages

import (
	"context"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/models"
)

// NewArticlePage is the empty editor
type NewArticlePage struct {
	page
}

func NewNewArticlePage(site *Site) *NewArticlePage {
	p := &NewArticlePage{page: page{site: site, screen: ScreenNewArticle, path: "/editor"}}
	p.load = func(ctx context.Context) error {
		return site.Driver.WaitVisible(ctx, browser.CSS(selTitleInput))
	}
	return p
}

// CreateArticle fills the form, publishes, and waits for the new article to render
func (p *NewArticlePage) CreateArticle(ctx context.Context, input models.ArticleInput) (*ArticlePage, error) {
	err := p.site.step("Create article with title: "+input.Title, func() error {
		if p.site.Logger != nil {
			p.site.Logger.Info().Str("title", input.Title).Strs("tags", input.TagList).Msg("Creating article")
		}
		if err := p.FillArticleForm(ctx, input); err != nil {
			return err
		}
		return p.site.Driver.Click(ctx, browser.CSS(selSubmitButton))
	})
	if err != nil {
		return nil, err
	}

	article := NewArticleViewPage(p.site)
	if err := article.waitForLoad(ctx); err != nil {
		return nil, err
	}
	return article, nil
}

// FillArticleForm types the fields; each tag is committed with Enter
func (p *NewArticlePage) FillArticleForm(ctx context.Context, input models.ArticleInput) error {
	return p.site.step("Fill article form", func() error {
		drv := p.site.Driver
		if err := drv.SetValue(ctx, browser.CSS(selTitleInput), input.Title); err != nil {
			return err
		}
		if err := drv.SetValue(ctx, browser.CSS(selDescriptionInput), input.Description); err != nil {
			return err
		}
		if err := drv.SetValue(ctx, browser.CSS(selBodyTextarea), input.Body); err != nil {
			return err
		}
		for _, tag := range input.TagList {
			if err := drv.SetValue(ctx, browser.CSS(selTagsInput), tag); err != nil {
				return err
			}
			if err := drv.PressEnter(ctx, browser.CSS(selTagsInput)); err != nil {
				return err
			}
		}
		return nil
	})
}

// IsPublishEnabled reports whether the publish button is present and not disabled
func (p *NewArticlePage) IsPublishEnabled(ctx context.Context) bool {
	snap, err := p.site.snapshot(ctx)
	if err != nil {
		return false
	}
	loc := browser.CSS(selSubmitButton)
	if !snap.Exists(loc) {
		return false
	}
	_, disabled := snap.Attr(loc, "disabled")
	return !disabled
}

func (p *NewArticlePage) ErrorMessage(ctx context.Context) (string, error) {
	return p.site.text(ctx, browser.CSS(selErrorMessages))
}
