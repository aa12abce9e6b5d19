package realworldtest

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

type account struct {
	email    string
	username string
	password string
	bio      *string
	image    *string
	follows  map[string]bool // followed usernames
}

type article struct {
	seq         int
	slug        string
	title       string
	description string
	body        string
	tags        []string
	author      string
	createdAt   time.Time
	updatedAt   time.Time
	favoritedBy map[string]bool
	comments    []*comment
	nextComment int
}

type comment struct {
	id        int
	body      string
	author    string
	createdAt time.Time
	updatedAt time.Time
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "article"
	}
	return slug
}

// profileFor renders account a as seen by viewer (may be nil)
func profileFor(a *account, viewer *account) models.Profile {
	p := models.Profile{Username: a.username, Bio: a.bio, Image: a.image}
	if viewer != nil {
		p.Following = viewer.follows[a.username]
	}
	return p
}

func (s *Server) articleView(a *article, viewer *account) models.Article {
	tags := make([]string, len(a.tags))
	copy(tags, a.tags)

	view := models.Article{
		Slug:           a.slug,
		Title:          a.title,
		Description:    a.description,
		Body:           a.body,
		TagList:        tags,
		CreatedAt:      a.createdAt,
		UpdatedAt:      a.updatedAt,
		FavoritesCount: len(a.favoritedBy),
		Author:         profileFor(s.byUsername[a.author], viewer),
	}
	if viewer != nil {
		view.Favorited = a.favoritedBy[viewer.username]
	}
	return view
}

func (s *Server) commentView(c *comment, viewer *account) models.Comment {
	return models.Comment{
		ID:        c.id,
		Body:      c.body,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
		Author:    profileFor(s.byUsername[c.author], viewer),
	}
}

// newestFirst returns the articles ordered by creation, most recent first
func (s *Server) newestFirst() []*article {
	out := make([]*article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out
}

// tagList derives the tag list from live articles, in first-use order
func (s *Server) tagList() []string {
	articles := s.newestFirst()
	set := models.NewTagSet()
	for i := len(articles) - 1; i >= 0; i-- {
		for _, t := range articles[i].tags {
			set.Add(t)
		}
	}
	tags := set.Slice()
	if s.duplicateTags {
		tags = append(tags, tags...)
	}
	return tags
}

func page(articles []*article, limit, offset int) []*article {
	if offset >= len(articles) {
		return nil
	}
	articles = articles[offset:]
	if limit > 0 && limit < len(articles) {
		articles = articles[:limit]
	}
	return articles
}
