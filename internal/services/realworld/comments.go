package realworld

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

// CreateComment calls POST /articles/{slug}/comments. Only 201 is accepted.
func (c *Client) CreateComment(ctx context.Context, slug, body string) (*models.Comment, error) {
	var out models.CommentEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/articles/" + pathEscape(slug) + "/comments",
		auth:   authRequired,
		body:   models.CommentInputEnvelope{Comment: models.CommentInput{Body: body}},
		expect: []int{http.StatusCreated},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// GetComments calls GET /articles/{slug}/comments. Comments come back in the
// order the server returns them.
func (c *Client) GetComments(ctx context.Context, slug string) ([]models.Comment, error) {
	var out models.CommentsEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/articles/" + pathEscape(slug) + "/comments",
		auth:   authOptional,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Comments == nil {
		out.Comments = []models.Comment{}
	}
	return out.Comments, nil
}

// DeleteComment calls DELETE /articles/{slug}/comments/{id} and returns the response status
func (c *Client) DeleteComment(ctx context.Context, slug string, id int) (int, error) {
	return c.do(ctx, call{
		method: http.MethodDelete,
		path:   "/articles/" + pathEscape(slug) + "/comments/" + strconv.Itoa(id),
		auth:   authRequired,
		expect: []int{http.StatusOK, http.StatusNoContent},
	})
}
