package pages

import (
	"context"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/models"
)

// EditArticlePage is the editor opened on an existing article
type EditArticlePage struct {
	page
}

func NewEditArticlePage(site *Site) *EditArticlePage {
	p := &EditArticlePage{page: page{site: site, screen: ScreenEditor, path: "/editor"}}
	p.load = func(ctx context.Context) error {
		title := browser.CSS(selTitleInput)
		if err := site.Driver.WaitVisible(ctx, title); err != nil {
			return err
		}
		// the form is filled asynchronously after the article loads
		return site.waitUntil(ctx, "editor title populated", site.Timeouts.Explicit, func(ctx context.Context) (bool, error) {
			v, err := site.Driver.Value(ctx, title)
			return v != "", err
		})
	}
	return p
}

// UpdateArticle replaces the fields set in update, leaves the others as loaded,
// and publishes
func (p *EditArticlePage) UpdateArticle(ctx context.Context, update models.ArticleUpdate) (*ArticlePage, error) {
	err := p.site.step("Update article", func() error {
		fields := []struct {
			css   string
			value *string
		}{
			{selTitleInput, update.Title},
			{selDescriptionInput, update.Description},
			{selBodyTextarea, update.Body},
		}
		for _, f := range fields {
			if f.value == nil {
				continue
			}
			if err := p.site.Driver.SetValue(ctx, browser.CSS(f.css), *f.value); err != nil {
				return err
			}
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

func (p *EditArticlePage) CurrentTitle(ctx context.Context) (string, error) {
	return p.site.Driver.Value(ctx, browser.CSS(selTitleInput))
}

func (p *EditArticlePage) CurrentDescription(ctx context.Context) (string, error) {
	return p.site.Driver.Value(ctx, browser.CSS(selDescriptionInput))
}

func (p *EditArticlePage) CurrentBody(ctx context.Context) (string, error) {
	return p.site.Driver.Value(ctx, browser.CSS(selBodyTextarea))
}
