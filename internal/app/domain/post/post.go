// Package post defines the content entity served by the posts service.
package post

import "time"

// Post is an authored content entry.
type Post struct {
	ID          string    `json:"id" db:"id"`
	AuthorID    string    `json:"author_id" db:"author_id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Body        string    `json:"body" db:"body"`
	Published   bool      `json:"published" db:"published"`
	PublishedAt time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
