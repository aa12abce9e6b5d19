package realworld

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

// CreateArticle calls POST /articles. Only 201 is accepted.
func (c *Client) CreateArticle(ctx context.Context, input models.ArticleInput) (*models.Article, error) {
	if input.TagList == nil {
		input.TagList = []string{}
	}

	var out models.ArticleEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/articles",
		auth:   authRequired,
		body:   models.ArticleInputEnvelope{Article: input},
		expect: []int{http.StatusCreated},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info().
			Str("slug", out.Article.Slug).
			Str("title", out.Article.Title).
			Strs("tags", out.Article.TagList).
			Msg("Article created")
	}
	return &out.Article, nil
}

// UpdateArticle calls PUT /articles/{slug}. Fields left nil in update keep their
// previous values. The returned article may carry a new slug.
func (c *Client) UpdateArticle(ctx context.Context, slug string, update models.ArticleUpdate) (*models.Article, error) {
	var out models.ArticleEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodPut,
		path:   "/articles/" + pathEscape(slug),
		auth:   authRequired,
		body:   models.ArticleUpdateEnvelope{Article: update},
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// DeleteArticle calls DELETE /articles/{slug} and returns the response status
func (c *Client) DeleteArticle(ctx context.Context, slug string) (int, error) {
	return c.do(ctx, call{
		method: http.MethodDelete,
		path:   "/articles/" + pathEscape(slug),
		auth:   authRequired,
		expect: []int{http.StatusOK, http.StatusNoContent},
	})
}

// GetArticle calls GET /articles/{slug}. A deleted article yields an error for
// which IsNotFound is true.
func (c *Client) GetArticle(ctx context.Context, slug string) (*models.Article, error) {
	var out models.ArticleEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/articles/" + pathEscape(slug),
		auth:   authOptional,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Article, nil
}

// ListArticles calls GET /articles with the given filter
func (c *Client) ListArticles(ctx context.Context, filter models.ArticleFilter) (*models.ArticleList, error) {
	var out models.ArticleList
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/articles",
		query:  filterQuery(filter),
		auth:   authOptional,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Articles == nil {
		out.Articles = []models.Article{}
	}
	return &out, nil
}

// GetArticlesByTag lists articles carrying tag
func (c *Client) GetArticlesByTag(ctx context.Context, tag string) (*models.ArticleList, error) {
	return c.ListArticles(ctx, models.ArticleFilter{Tag: tag})
}

// Feed calls GET /articles/feed: articles by authors the session user follows
func (c *Client) Feed(ctx context.Context, limit, offset int) (*models.ArticleList, error) {
	var out models.ArticleList
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/articles/feed",
		query:  filterQuery(models.ArticleFilter{Limit: limit, Offset: offset}),
		auth:   authRequired,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Articles == nil {
		out.Articles = []models.Article{}
	}
	return &out, nil
}

// FavoriteArticle calls POST /articles/{slug}/favorite
func (c *Client) FavoriteArticle(ctx context.Context, slug string) (*models.Article, error) {
	return c.favorite(ctx, http.MethodPost, slug)
}

// UnfavoriteArticle calls DELETE /articles/{slug}/favorite
func (c *Client) UnfavoriteArticle(ctx context.Context, slug string) (*models.Article, error) {
	return c.favorite(ctx, http.MethodDelete, slug)
}

func (c *Client) favorite(ctx context.Context, method, slug string) (*models.Article, error) {
	path := "/articles/" + pathEscape(slug) + "/favorite"

	var out models.ArticleEnvelope
	_, err := c.do(ctx, call{
		method: method,
		path:   path,
		auth:   authRequired,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}

	if out.Article.FavoritesCount < 0 {
		return nil, fmt.Errorf("unexpected response from %s %s: negative favoritesCount %d",
			method, path, out.Article.FavoritesCount)
	}
	return &out.Article, nil
}

func filterQuery(filter models.ArticleFilter) url.Values {
	q := url.Values{}
	if filter.Tag != "" {
		q.Set("tag", filter.Tag)
	}
	if filter.Author != "" {
		q.Set("author", filter.Author)
	}
	if filter.Favorited != "" {
		q.Set("favorited", filter.Favorited)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	return q
}
