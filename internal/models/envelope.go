package models

// Wire envelopes. Single resources are wrapped under a singular key, lists under
// the plural key.

type UserEnvelope struct {
	User User `json:"user"`
}

type LoginEnvelope struct {
	User LoginPayload `json:"user"`
}

type RegisterEnvelope struct {
	User RegisterPayload `json:"user"`
}

type ArticleEnvelope struct {
	Article Article `json:"article"`
}

type ArticleInputEnvelope struct {
	Article ArticleInput `json:"article"`
}

type ArticleUpdateEnvelope struct {
	Article ArticleUpdate `json:"article"`
}

type CommentEnvelope struct {
	Comment Comment `json:"comment"`
}

type CommentInputEnvelope struct {
	Comment CommentInput `json:"comment"`
}

type CommentsEnvelope struct {
	Comments []Comment `json:"comments"`
}

type ProfileEnvelope struct {
	Profile Profile `json:"profile"`
}

type TagsEnvelope struct {
	Tags []string `json:"tags"`
}

// ErrorsEnvelope is the RealWorld validation error body: {"errors": {"field": ["msg"]}}
type ErrorsEnvelope struct {
	Errors map[string][]string `json:"errors"`
}
