package models

import "time"

// Comment belongs to exactly one article; IDs are unique within that article
type Comment struct {
	ID        int       `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    Profile   `json:"author"`
}

// CommentInput is the payload for POST /articles/{slug}/comments
type CommentInput struct {
	Body string `json:"body"`
}
