package realworld

import (
	"context"
	"net/http"

	"github.com/ternarybob/realworld-e2e/internal/models"
)

// GetTags calls GET /tags. Duplicate tags in the response are removed.
func (c *Client) GetTags(ctx context.Context) (*models.TagSet, error) {
	var out models.TagsEnvelope
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/tags",
		auth:   anonymous,
		expect: []int{http.StatusOK},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}

	tags := models.NewTagSet(out.Tags...)
	if tags.Len() != len(out.Tags) && c.logger != nil {
		c.logger.Warn().
			Int("received", len(out.Tags)).
			Int("unique", tags.Len()).
			Msg("Server returned duplicate or blank tags")
	}
	return tags, nil
}
