package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Reads(t *testing.T) {
	snap, err := NewSnapshot(`
		<div class="tag-list">
			<a class="tag-pill">go</a>
			<a class="tag-pill">  </a>
			<a class="tag-pill active">golang</a>
		</div>
		<div class="article-preview"><h1>First</h1></div>
		<div class="article-preview"><h1>Second</h1></div>`)
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "golang"}, snap.Texts(".tag-list .tag-pill"))
	assert.Equal(t, 2, snap.Count(CSS(".article-preview")))
	assert.Equal(t, 1, snap.Count(WithExactText(".tag-pill", "go")))
	assert.Equal(t, 2, snap.Count(WithText(".tag-pill", "go")))
	assert.True(t, snap.HasClass(WithText(".tag-pill", "golang"), "active"))

	text, ok := snap.Text(CSS(".article-preview h1"))
	assert.True(t, ok)
	assert.Equal(t, "First", text)

	_, ok = snap.Text(CSS(".missing"))
	assert.False(t, ok)
}
