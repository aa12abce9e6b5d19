package models

import (
	"sort"
	"strings"
)

// TagSet is an insertion-ordered set of tags. Tags are trimmed; blanks are dropped.
// The zero value is an empty set.
type TagSet struct {
	order []string
	seen  map[string]struct{}
}

// NewTagSet builds a set from tags, keeping the first occurrence of each
func NewTagSet(tags ...string) *TagSet {
	s := &TagSet{seen: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// Add inserts tag and reports whether it was new
func (s *TagSet) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if _, ok := s.seen[tag]; ok {
		return false
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	s.seen[tag] = struct{}{}
	s.order = append(s.order, tag)
	return true
}

func (s *TagSet) Contains(tag string) bool {
	_, ok := s.seen[strings.TrimSpace(tag)]
	return ok
}

func (s *TagSet) Len() int {
	return len(s.order)
}

// Slice returns the tags in insertion order
func (s *TagSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns the tags in lexical order
func (s *TagSet) Sorted() []string {
	out := s.Slice()
	sort.Strings(out)
	return out
}

// SameTags compares two tag lists as sets
func SameTags(a, b []string) bool {
	sa, sb := NewTagSet(a...), NewTagSet(b...)
	if sa.Len() != sb.Len() {
		return false
	}
	for _, t := range sa.order {
		if !sb.Contains(t) {
			return false
		}
	}
	return true
}
