package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/errors"
)

func TestUserCRUD(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, user.User{Email: "A@Example.com", Name: "A", Role: user.RoleUser, Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	// Email lookup is case-insensitive.
	byEmail, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = store.CreateUser(ctx, user.User{Email: "a@EXAMPLE.com", Name: "Dup"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	created.Name = "Renamed"
	updated, err := store.UpdateUser(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = store.GetUser(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestUpdateUserEmailReindex(t *testing.T) {
	store := New()
	ctx := context.Background()

	first, err := store.CreateUser(ctx, user.User{Email: "first@example.com", Name: "First"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, user.User{Email: "second@example.com", Name: "Second"})
	require.NoError(t, err)

	// Moving to a taken address conflicts.
	first.Email = "second@example.com"
	_, err = store.UpdateUser(ctx, first)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	// Moving to a free address releases the old one.
	first.Email = "third@example.com"
	_, err = store.UpdateUser(ctx, first)
	require.NoError(t, err)

	_, err = store.GetUserByEmail(ctx, "first@example.com")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
	moved, err := store.GetUserByEmail(ctx, "third@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, moved.ID)
}

func TestPostSlugUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.CreatePost(ctx, post.Post{Slug: "hello", Title: "Hello", AuthorID: "u1"})
	require.NoError(t, err)

	_, err = store.CreatePost(ctx, post.Post{Slug: "hello", Title: "Hello again", AuthorID: "u2"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	found, err := store.GetPostBySlug(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", found.Title)
}

func TestListPostsFiltersByAuthor(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, p := range []post.Post{
		{Slug: "a", Title: "A", AuthorID: "u1"},
		{Slug: "b", Title: "B", AuthorID: "u2"},
		{Slug: "c", Title: "C", AuthorID: "u1"},
	} {
		_, err := store.CreatePost(ctx, p)
		require.NoError(t, err)
	}

	all, err := store.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.ListPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestNotificationLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	n1, err := store.CreateNotification(ctx, notification.Notification{UserID: "u1", Kind: notification.KindInfo, Title: "one"})
	require.NoError(t, err)
	_, err = store.CreateNotification(ctx, notification.Notification{UserID: "u1", Kind: notification.KindInfo, Title: "two"})
	require.NoError(t, err)
	_, err = store.CreateNotification(ctx, notification.Notification{UserID: "u2", Kind: notification.KindInfo, Title: "other"})
	require.NoError(t, err)

	list, err := store.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	read, err := store.MarkNotificationRead(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	count, err := store.MarkAllNotificationsRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "already-read notifications are not counted")
}
