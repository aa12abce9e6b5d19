package realworld

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/realworld-e2e/internal/common"
	"github.com/ternarybob/realworld-e2e/internal/models"
	"github.com/ternarybob/realworld-e2e/internal/report"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld/realworldtest"
)

func startBackend(t *testing.T, opts ...realworldtest.Option) (*realworldtest.Server, string) {
	t.Helper()
	backend := realworldtest.New(opts...)
	ts := backend.Start()
	t.Cleanup(ts.Close)
	return backend, ts.URL + "/api"
}

func newSession(t *testing.T, apiURL, username string) *Client {
	t.Helper()
	c := NewClient(apiURL, WithLogger(arbor.NewLogger()), WithUsername(username), WithRateLimit(1000))
	_, err := c.Authenticate(context.Background(), username+"@example.com", "secret-password")
	require.NoError(t, err)
	return c
}

func TestAuthenticate_RegistersWhenLoginRejected(t *testing.T) {
	backend, apiURL := startBackend(t)
	ctx := context.Background()

	first := NewClient(apiURL, WithUsername("alice"))
	user, err := first.Authenticate(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.Token)
	assert.True(t, first.Authenticated())
	assert.Equal(t, 1, backend.Requests("POST /api/users"))

	// A second session with the same credentials logs in without registering again
	second := NewClient(apiURL)
	user2, err := second.Authenticate(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", user2.Username)
	assert.Equal(t, 1, backend.Requests("POST /api/users"))
	assert.Equal(t, 2, backend.Requests("POST /api/users/login"))

	// Sessions are independent
	assert.NotEqual(t, first.Session().Token, second.Session().Token)
}

func TestAuthenticate_UsernameFromEmail(t *testing.T) {
	_, apiURL := startBackend(t)

	c := NewClient(apiURL)
	user, err := c.Authenticate(context.Background(), "bob.smith@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob.smith", user.Username)
}

func TestAuthenticate_TransportErrorDoesNotRegister(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	apiURL := ts.URL + "/api"
	ts.Close()

	c := NewClient(apiURL)
	_, err := c.Authenticate(context.Background(), "carol@example.com", "pw")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.False(t, c.Authenticated())
}

func TestAuthRequired_FailsLocallyWithoutSession(t *testing.T) {
	backend, apiURL := startBackend(t)
	c := NewClient(apiURL)

	_, err := c.CreateArticle(context.Background(), models.ArticleInput{Title: "t", Description: "d", Body: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.Equal(t, 0, backend.Requests("POST /api/articles"))
}

func TestArticleLifecycle(t *testing.T) {
	_, apiURL := startBackend(t)
	ctx := context.Background()
	c := newSession(t, apiURL, "author")

	created, err := c.CreateArticle(ctx, models.ArticleInput{
		Title:       "Amazing Article",
		Description: "Great description",
		Body:        "Wonderful body",
		TagList:     []string{"testing", "automation"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Amazing Article", created.Title)
	assert.True(t, models.SameTags([]string{"automation", "testing"}, created.TagList))
	assert.Equal(t, "author", created.Author.Username)

	// Partial update keeps the fields that were not sent
	updated, err := c.UpdateArticle(ctx, created.Slug, models.ArticleUpdate{Body: models.Ptr("New body")})
	require.NoError(t, err)
	assert.Equal(t, "New body", updated.Body)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Description, updated.Description)

	// Applying the same update again leaves the article unchanged
	again, err := c.UpdateArticle(ctx, updated.Slug, models.ArticleUpdate{Body: models.Ptr("New body")})
	require.NoError(t, err)
	assert.Equal(t, updated.Body, again.Body)
	assert.Equal(t, updated.Title, again.Title)

	status, err := c.DeleteArticle(ctx, again.Slug)
	require.NoError(t, err)
	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, status)

	_, err = c.GetArticle(ctx, again.Slug)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestCreateArticle_RejectedPayloadIsAPIError(t *testing.T) {
	_, apiURL := startBackend(t)
	c := newSession(t, apiURL, "writer")

	_, err := c.CreateArticle(context.Background(), models.ArticleInput{Title: "only a title"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, []int{http.StatusCreated}, apiErr.Expected)
	assert.Contains(t, apiErr.Body, "errors")
	assert.Contains(t, err.Error(), "POST /articles")
}

func TestFavoriteToggle(t *testing.T) {
	_, apiURL := startBackend(t)
	ctx := context.Background()
	c := newSession(t, apiURL, "fan")

	a, err := c.CreateArticle(ctx, models.ArticleInput{Title: "Fav", Description: "d", Body: "b"})
	require.NoError(t, err)

	fav, err := c.FavoriteArticle(ctx, a.Slug)
	require.NoError(t, err)
	assert.True(t, fav.Favorited)
	assert.Equal(t, a.FavoritesCount+1, fav.FavoritesCount)

	unfav, err := c.UnfavoriteArticle(ctx, a.Slug)
	require.NoError(t, err)
	assert.False(t, unfav.Favorited)
	assert.Equal(t, a.FavoritesCount, unfav.FavoritesCount)
}

func TestFavorite_NegativeCountRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"article":{"slug":"s","favorited":false,"favoritesCount":-1}}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, WithToken("token"))
	_, err := c.UnfavoriteArticle(context.Background(), "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative favoritesCount")
}

func TestComments(t *testing.T) {
	_, apiURL := startBackend(t)
	ctx := context.Background()
	c := newSession(t, apiURL, "commenter")

	a, err := c.CreateArticle(ctx, models.ArticleInput{Title: "Commented", Description: "d", Body: "b"})
	require.NoError(t, err)

	first, err := c.CreateComment(ctx, a.Slug, "first")
	require.NoError(t, err)
	_, err = c.CreateComment(ctx, a.Slug, "second")
	require.NoError(t, err)

	comments, err := c.GetComments(ctx, a.Slug)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)

	status, err := c.DeleteComment(ctx, a.Slug, first.ID)
	require.NoError(t, err)
	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, status)

	comments, err = c.GetComments(ctx, a.Slug)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "second", comments[0].Body)
}

func TestFollowAndFeed(t *testing.T) {
	_, apiURL := startBackend(t)
	ctx := context.Background()
	author := newSession(t, apiURL, "followed")
	reader := newSession(t, apiURL, "follower")

	a, err := author.CreateArticle(ctx, models.ArticleInput{Title: "Followed post", Description: "d", Body: "b"})
	require.NoError(t, err)

	profile, err := reader.FollowUser(ctx, "followed")
	require.NoError(t, err)
	assert.True(t, profile.Following)

	feed, err := reader.Feed(ctx, 10, 0)
	require.NoError(t, err)
	assert.Contains(t, feed.Slugs(), a.Slug)

	profile, err = reader.UnfollowUser(ctx, "followed")
	require.NoError(t, err)
	assert.False(t, profile.Following)

	profile, err = reader.GetProfile(ctx, "followed")
	require.NoError(t, err)
	assert.False(t, profile.Following)

	_, err = reader.GetProfile(ctx, "nobody-here")
	assert.True(t, IsNotFound(err))
}

func TestTagFilterAndDedupe(t *testing.T) {
	_, apiURL := startBackend(t, realworldtest.WithDuplicateTags())
	ctx := context.Background()
	c := newSession(t, apiURL, "tagger")

	_, err := c.CreateArticle(ctx, models.ArticleInput{Title: "One", Description: "d", Body: "b", TagList: []string{"go", "e2e"}})
	require.NoError(t, err)
	_, err = c.CreateArticle(ctx, models.ArticleInput{Title: "Two", Description: "d", Body: "b", TagList: []string{"rust"}})
	require.NoError(t, err)

	tags, err := c.GetTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2e", "go", "rust"}, tags.Sorted())

	list, err := c.GetArticlesByTag(ctx, "go")
	require.NoError(t, err)
	require.Equal(t, 1, list.ArticlesCount)
	for _, a := range list.Articles {
		assert.True(t, a.HasTag("go"))
	}
}

func TestRecorderReceivesExchanges(t *testing.T) {
	_, apiURL := startBackend(t)
	rec := report.New("run", "exchanges", "", nil)

	c := NewClient(apiURL, WithRecorder(rec), WithUsername("recorded"))
	_, err := c.Authenticate(context.Background(), "recorded@example.com", "pw")
	require.NoError(t, err)

	names := []string{}
	for _, a := range rec.Snapshot().Attachments {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, "Request POST /users/login")
	assert.Contains(t, names, "Response POST /users/login (422)")
	assert.Contains(t, names, "Response POST /users (201)")
}
