package models

import "time"

// Post is a news article shown on the marketing site and managed from the
// dashboard.
type Post struct {
	ID        string
	Title     string
	Slug      string
	Body      string
	Published bool
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
