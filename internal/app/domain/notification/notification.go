// Package notification defines per-user notification records.
package notification

import "time"

// Kind classifies a notification for client-side rendering.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindMention Kind = "mention"
	KindSystem  Kind = "system"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Kind      Kind      `json:"kind" db:"kind"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
