package models

// Profile is an author as seen by the current viewer; Following is relative to that viewer
type Profile struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}
