package pages

import (
	"context"
	"fmt"
	"html"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/realworld-e2e/internal/browser"
	"github.com/ternarybob/realworld-e2e/internal/browser/browsertest"
	"github.com/ternarybob/realworld-e2e/internal/models"
)

const testBaseURL = "http://conduit.test"

type fakeArticle struct {
	slug        string
	title       string
	description string
	body        string
	tags        []string
	favorited   bool
	comments    []string
}

// fakeApp scripts a small Conduit front end on top of browsertest.Fake
type fakeApp struct {
	fake *browsertest.Fake

	password    string
	loggedIn    bool
	loginFailed bool

	articles []*fakeArticle
	// titles only listed when the feed is filtered by one of their tags
	feedLag map[string]bool
	// titles missing from the unfiltered feed until this many navigations
	feedAfter map[string]int
	// the sidebar renders only after this many navigations
	sidebarAfter int

	activeTag    string
	activeTagNav int
	editing      *fakeArticle
	pendingTags  []string
	seq          int
}

func newFakeApp(t *testing.T) (*fakeApp, *Site) {
	t.Helper()
	app := &fakeApp{
		fake:     browsertest.New(testBaseURL),
		password: "secret",
		feedLag:   map[string]bool{},
		feedAfter: map[string]int{},
	}
	app.fake.Implicit = 20 * time.Millisecond
	app.install()

	site := &Site{
		Driver:  app.fake,
		BaseURL: testBaseURL,
		Logger:  arbor.NewLogger(),
		Timeouts: Timeouts{
			Implicit: 20 * time.Millisecond,
			Explicit: 30 * time.Millisecond,
			PageLoad: time.Second,
		},
		Poll: PollSettings{
			TagAttempts:     4,
			TagInterval:     time.Millisecond,
			ArticleAttempts: 5,
			ArticleInterval: time.Millisecond,
			FallbackTags:    3,
		},
	}
	return app, site
}

func (a *fakeApp) addArticle(title string, tags ...string) *fakeArticle {
	a.seq++
	art := &fakeArticle{
		slug:        fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(title, " ", "-")), a.seq),
		title:       title,
		description: "about " + title,
		body:        "body of " + title,
		tags:        models.NewTagSet(tags...).Slice(),
	}
	a.articles = append(a.articles, art)
	a.fake.Route("/article/"+art.slug, func(*browsertest.Fake) string { return a.renderArticle(art) })
	return art
}

func (a *fakeApp) find(title string) *fakeArticle {
	for _, art := range a.articles {
		if strings.Contains(title, art.title) {
			return art
		}
	}
	return nil
}

func (a *fakeApp) install() {
	f := a.fake
	f.Route("/login", func(*browsertest.Fake) string { return a.renderLogin() })
	f.Route("/", func(f *browsertest.Fake) string { return a.renderHome(f) })
	f.Route("/editor", func(*browsertest.Fake) string { return a.renderEditor() })

	f.OnClick(browser.CSS(selSubmitButton), func(f *browsertest.Fake, _ string) error {
		switch f.CurrentRoute() {
		case "/login":
			if f.Field(selPasswordInput) != a.password {
				a.loginFailed = true
				return nil
			}
			a.loggedIn = true
			f.Go("/")
		case "/editor":
			return a.publish(f)
		}
		return nil
	})
	f.OnEnter(selTagsInput, func(_ *browsertest.Fake, value string) error {
		a.pendingTags = append(a.pendingTags, value)
		return nil
	})
	f.OnClick(browser.CSS(selTagPills), func(f *browsertest.Fake, text string) error {
		a.activeTag = text
		a.activeTagNav = f.NavigationCount()
		return nil
	})
	f.OnClick(browser.CSS(selArticlePreview).Within(selPreviewTitle), func(f *browsertest.Fake, text string) error {
		if art := a.find(text); art != nil {
			f.Go("/article/" + art.slug)
		}
		return nil
	})
	f.OnClick(browser.CSS(selEditButton), func(f *browsertest.Fake, _ string) error {
		a.editing = a.current(f)
		f.Go("/editor")
		return nil
	})
	f.OnClick(browser.CSS(selDeleteButton), func(f *browsertest.Fake, _ string) error {
		art := a.current(f)
		for i, candidate := range a.articles {
			if candidate == art {
				a.articles = append(a.articles[:i], a.articles[i+1:]...)
				break
			}
		}
		f.Go("/")
		return nil
	})
	f.OnClick(browser.CSS(selFavoriteButton), func(f *browsertest.Fake, _ string) error {
		art := a.current(f)
		art.favorited = !art.favorited
		return nil
	})
	f.OnClick(browser.CSS(selPostComment), func(f *browsertest.Fake, _ string) error {
		art := a.current(f)
		art.comments = append(art.comments, f.Field(selCommentTextarea))
		return nil
	})
	f.OnClick(browser.CSS(selCommentCard).Within(selDeleteComment), func(f *browsertest.Fake, text string) error {
		art := a.current(f)
		for i, c := range art.comments {
			if strings.TrimSpace(c) == text {
				art.comments = append(art.comments[:i], art.comments[i+1:]...)
				break
			}
		}
		return nil
	})
}

func (a *fakeApp) current(f *browsertest.Fake) *fakeArticle {
	slug := strings.TrimPrefix(f.CurrentRoute(), "/article/")
	for _, art := range a.articles {
		if art.slug == slug {
			return art
		}
	}
	return nil
}

func (a *fakeApp) publish(f *browsertest.Fake) error {
	ctx := context.Background()
	title, _ := f.Value(ctx, browser.CSS(selTitleInput))
	description, _ := f.Value(ctx, browser.CSS(selDescriptionInput))
	body, _ := f.Value(ctx, browser.CSS(selBodyTextarea))

	art := a.editing
	if art == nil {
		art = a.addArticle(title, a.pendingTags...)
	}
	art.title, art.description, art.body = title, description, body
	a.editing, a.pendingTags = nil, nil
	f.Go("/article/" + art.slug)
	return nil
}

func (a *fakeApp) renderLogin() string {
	out := `<div class="container"><form>` +
		`<input placeholder="Email"><input placeholder="Password" type="password">` +
		`<button type="submit" class="btn btn-primary">Sign in</button></form>`
	if a.loginFailed {
		out += `<ul class="error-messages"><li>email or password is invalid</li></ul>`
	}
	return out + `</div>`
}

func (a *fakeApp) renderHome(f *browsertest.Fake) string {
	var b strings.Builder
	b.WriteString(`<nav><ul class="nav">`)
	if a.loggedIn {
		b.WriteString(`<li><a class="nav-link" href="#/editor">New Article</a></li>`)
		b.WriteString(`<li><a class="nav-link" href="#/@tester">tester</a></li>`)
	}
	b.WriteString(`</ul></nav><div class="container"><div class="feed-toggle">`)

	tag := ""
	if a.activeTag != "" && a.activeTagNav == f.NavigationCount() {
		tag = a.activeTag
		fmt.Fprintf(&b, `<a class="nav-link active" href=""># %s</a>`, html.EscapeString(tag))
	}
	b.WriteString(`</div>`)

	for i := len(a.articles) - 1; i >= 0; i-- {
		art := a.articles[i]
		if tag != "" && !models.NewTagSet(art.tags...).Contains(tag) {
			continue
		}
		if tag == "" && (a.feedLag[art.title] || f.NavigationCount() < a.feedAfter[art.title]) {
			continue
		}
		fmt.Fprintf(&b, `<div class="article-preview"><a class="preview-link" href="#/article/%s"><h1>%s</h1><p>%s</p></a></div>`,
			art.slug, html.EscapeString(art.title), html.EscapeString(art.description))
	}

	if f.NavigationCount() > a.sidebarAfter {
		b.WriteString(`<div class="sidebar"><p>Popular Tags</p><div class="tag-list">`)
		set := models.NewTagSet()
		for _, art := range a.articles {
			for _, t := range art.tags {
				set.Add(t)
			}
		}
		for _, t := range set.Slice() {
			fmt.Fprintf(&b, `<a href="" class="tag-pill tag-default">%s</a>`, html.EscapeString(t))
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func (a *fakeApp) renderEditor() string {
	title, description, body := "", "", ""
	if a.editing != nil {
		title, description, body = a.editing.title, a.editing.description, a.editing.body
	}
	return fmt.Sprintf(`<div class="container"><form>`+
		`<input placeholder="Article Title" value="%s">`+
		`<input placeholder="What's this article about?" value="%s">`+
		`<textarea placeholder="Write your article (in markdown)">%s</textarea>`+
		`<input placeholder="Enter tags">`+
		`<button type="submit" class="btn btn-lg btn-primary">Publish Article</button>`+
		`</form></div>`,
		html.EscapeString(title), html.EscapeString(description), html.EscapeString(body))
}

func (a *fakeApp) renderArticle(art *fakeArticle) string {
	var b strings.Builder
	favorite := "btn-outline-primary"
	if art.favorited {
		favorite = "btn-primary"
	}
	fmt.Fprintf(&b, `<div class="banner"><div class="container"><h1>%s</h1><div class="article-meta">`+
		`<a class="btn btn-sm btn-outline-secondary" href="#/editor/%s">Edit Article</a>`+
		`<button class="btn btn-sm btn-outline-danger">Delete Article</button>`+
		`<button class="btn btn-sm %s">Favorite Article</button>`+
		`</div></div></div>`, html.EscapeString(art.title), art.slug, favorite)
	fmt.Fprintf(&b, `<div class="container page"><div class="article-content"><p>%s</p></div><ul class="tag-list">`, html.EscapeString(art.body))
	for _, t := range art.tags {
		fmt.Fprintf(&b, `<li class="tag-pill tag-default">%s</li>`, html.EscapeString(t))
	}
	b.WriteString(`</ul><form class="card comment-form"><textarea placeholder="Write a comment..."></textarea>` +
		`<button type="submit" class="btn btn-sm btn-primary">Post Comment</button></form>`)
	for _, c := range art.comments {
		fmt.Fprintf(&b, `<div class="card comment-card"><p class="card-text">%s</p>`+
			`<span class="mod-options"><i class="ion-trash-a"></i></span></div>`, html.EscapeString(c))
	}
	b.WriteString(`</div>`)
	return b.String()
}
