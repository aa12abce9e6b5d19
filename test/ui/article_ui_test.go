package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/realworld-e2e/internal/datagen"
	"github.com/ternarybob/realworld-e2e/internal/models"
	"github.com/ternarybob/realworld-e2e/internal/pages"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld"
)

// TestArticleUI_CreateEditDelete walks the editor flow: create, verify, edit, delete
func TestArticleUI_CreateEditDelete(t *testing.T) {
	utc := NewUITestContext(t, MaxUITestTimeout)
	defer utc.Cleanup()
	utc.Env.Recorder.Label("feature", "Article Management UI")

	home := utc.LoginAsTestUser()

	editor, err := home.ClickNewArticle(utc.Ctx)
	require.NoError(t, err)

	input := models.ArticleInput{
		Title:       datagen.UniqueTitle("UI Article"),
		Description: datagen.RandomDescription(),
		Body:        datagen.CustomBody("Browser Testing"),
		TagList:     datagen.SpecificTags("e2e", "ui"),
	}
	article, err := editor.CreateArticle(utc.Ctx, input)
	require.NoError(t, err)
	utc.Screenshot("article_created")

	title, err := article.Title(utc.Ctx)
	require.NoError(t, err)
	assert.Equal(t, input.Title, title)

	tags, err := article.Tags(utc.Ctx)
	require.NoError(t, err)
	assert.True(t, models.SameTags(input.TagList, tags), "Rendered tags %v should match %v", tags, input.TagList)

	edit, err := article.ClickEdit(utc.Ctx)
	require.NoError(t, err)
	current, err := edit.CurrentTitle(utc.Ctx)
	require.NoError(t, err)
	assert.Equal(t, input.Title, current, "Editor should be populated with the article")

	newTitle := datagen.UniqueTitle("Edited UI Article")
	article, err = edit.UpdateArticle(utc.Ctx, models.ArticleUpdate{Title: models.Ptr(newTitle)})
	require.NoError(t, err)

	title, err = article.Title(utc.Ctx)
	require.NoError(t, err)
	assert.Equal(t, newTitle, title)

	body, err := article.Body(utc.Ctx)
	require.NoError(t, err)
	assert.Contains(t, body, "Browser Testing", "Body should be unchanged by a title edit")

	_, err = article.DeleteArticle(utc.Ctx)
	require.NoError(t, err)
	utc.Screenshot("article_deleted")

	list, err := utc.API.ListArticles(utc.Ctx, models.ArticleFilter{Author: utc.Env.Config.User.Username})
	require.NoError(t, err)
	for _, a := range list.Articles {
		assert.NotEqual(t, newTitle, a.Title, "Deleted article should not be listed")
	}
}

// TestArticleUI_CommentsAndFavorite seeds an article through the API and interacts with it in the browser
func TestArticleUI_CommentsAndFavorite(t *testing.T) {
	utc := NewUITestContext(t, MaxUITestTimeout)
	defer utc.Cleanup()

	seeded, err := utc.API.CreateArticle(utc.Ctx, models.ArticleInput{
		Title:       datagen.UniqueTitle("Commented Article"),
		Description: datagen.RandomDescription(),
		Body:        datagen.CustomBody("Discussion"),
		TagList:     datagen.SpecificTags("e2e"),
	})
	require.NoError(t, err)
	require.NoError(t, utc.Site.SettleAfterWrite(utc.Ctx))

	home := utc.LoginAsTestUser()

	found, err := home.WaitForArticle(utc.Ctx, seeded.Title)
	require.NoError(t, err)
	require.True(t, found, "Seeded article should appear in the feed")

	article, err := home.ClickOnArticle(utc.Ctx, seeded.Title)
	require.NoError(t, err)

	favorited, err := article.IsFavorited(utc.Ctx)
	require.NoError(t, err)
	require.NoError(t, article.ToggleFavorite(utc.Ctx))
	require.NoError(t, utc.Site.SettleAfterWrite(utc.Ctx))
	after, err := article.IsFavorited(utc.Ctx)
	require.NoError(t, err)
	assert.NotEqual(t, favorited, after, "Favourite button should toggle")

	comment := datagen.RandomComment()
	require.NoError(t, article.AddComment(utc.Ctx, comment))
	comments, err := article.Comments(utc.Ctx)
	require.NoError(t, err)
	assert.Contains(t, comments, comment)
	utc.Screenshot("comment_added")

	before := article.CommentCount(utc.Ctx)
	require.NoError(t, article.DeleteComment(utc.Ctx, comment))
	require.NoError(t, utc.Site.SettleAfterWrite(utc.Ctx))
	assert.Equal(t, before-1, article.CommentCount(utc.Ctx))

	// Cleanup through the API so the feed does not grow across runs
	_, err = utc.API.DeleteArticle(utc.Ctx, seeded.Slug)
	if err != nil && !realworld.IsNotFound(err) {
		t.Logf("Warning: failed to delete seeded article: %v", err)
	}
}

// TestArticleUI_LoginRejectsBadPassword expects an error message on the login screen
func TestArticleUI_LoginRejectsBadPassword(t *testing.T) {
	utc := NewUITestContext(t, MaxUITestTimeout)
	defer utc.Cleanup()

	login := pages.NewLoginPage(utc.Site)
	require.NoError(t, login.Open(utc.Ctx))

	_, err := login.Login(utc.Ctx, utc.Env.Config.User.Email, datagen.RandomPassword())
	require.NoError(t, err)

	msg, err := login.ErrorMessage(utc.Ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.True(t, login.IsErrorDisplayed(utc.Ctx))

	ok, err := login.AtPage(utc.Ctx)
	require.NoError(t, err)
	assert.True(t, ok, "A rejected login should stay on the login screen")
}
