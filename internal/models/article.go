package models

import (
	"time"
)

// Article is a RealWorld article. Slug is server assigned and may change when the
// title is updated; callers should treat it as valid only until the next update.
type Article struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

// HasTag reports whether tag is in the article's tag set
func (a *Article) HasTag(tag string) bool {
	return NewTagSet(a.TagList...).Contains(tag)
}

// ArticleInput is the payload for creating an article
type ArticleInput struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Body        string   `json:"body" validate:"required"`
	TagList     []string `json:"tagList"`
}

// ArticleUpdate is a partial update. Nil fields are omitted from the wire so the
// server keeps their previous values.
type ArticleUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Body        *string `json:"body,omitempty"`
}

// IsEmpty reports whether the update carries no fields
func (u ArticleUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Body == nil
}

// ArticleFilter narrows GET /articles
type ArticleFilter struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

// ArticleList is the GET /articles response
type ArticleList struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

// Slugs returns the slugs of the listed articles in response order
func (l *ArticleList) Slugs() []string {
	slugs := make([]string, 0, len(l.Articles))
	for _, a := range l.Articles {
		slugs = append(slugs, a.Slug)
	}
	return slugs
}

// Find returns the listed article with the given slug
func (l *ArticleList) Find(slug string) (*Article, bool) {
	for i := range l.Articles {
		if l.Articles[i].Slug == slug {
			return &l.Articles[i], true
		}
	}
	return nil, false
}

// Ptr returns a pointer to s, for building ArticleUpdate values
func Ptr(s string) *string {
	return &s
}
