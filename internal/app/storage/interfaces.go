// Package storage declares the persistence interfaces consumed by the
// application services, with interchangeable in-memory and SQLite
// implementations.
package storage

import (
	"context"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// PostStore persists posts.
type PostStore interface {
	CreatePost(ctx context.Context, p post.Post) (post.Post, error)
	UpdatePost(ctx context.Context, p post.Post) (post.Post, error)
	GetPost(ctx context.Context, id string) (post.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (post.Post, error)
	ListPosts(ctx context.Context, authorID string) ([]post.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	GetNotification(ctx context.Context, id string) (notification.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}
