package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagSet_DedupesAndTrims(t *testing.T) {
	s := NewTagSet("go", " go ", "", "testing", "go", "  ")

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"go", "testing"}, s.Slice())
	assert.True(t, s.Contains(" testing"))
	assert.False(t, s.Contains("kotlin"))
}

func TestTagSet_AddReportsNew(t *testing.T) {
	s := NewTagSet()
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("a "))
	assert.Equal(t, []string{"a"}, s.Sorted())
}

func TestTagSet_ZeroValueIsUsable(t *testing.T) {
	var s TagSet
	assert.False(t, s.Contains("go"))
	assert.True(t, s.Add("go"))
	assert.False(t, s.Add(" go "))
	assert.True(t, s.Contains("go"))
	assert.Equal(t, []string{"go"}, s.Slice())
}

func TestSameTags(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{"same order", []string{"a", "b"}, []string{"a", "b"}, true},
		{"different order", []string{"b", "a"}, []string{"a", "b"}, true},
		{"duplicates ignored", []string{"a", "a", "b"}, []string{"b", "a"}, true},
		{"missing tag", []string{"a"}, []string{"a", "b"}, false},
		{"different tag", []string{"a", "c"}, []string{"a", "b"}, false},
		{"both empty", nil, []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameTags(tt.a, tt.b))
		})
	}
}

func TestArticle_HasTag(t *testing.T) {
	a := &Article{TagList: []string{"technology", "innovation"}}
	assert.True(t, a.HasTag("innovation"))
	assert.False(t, a.HasTag("tutorial"))
}

func TestArticleUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ArticleUpdate{}.IsEmpty())
	assert.False(t, ArticleUpdate{Body: Ptr("x")}.IsEmpty())
}
