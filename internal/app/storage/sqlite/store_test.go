package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "app.db"), config.SettingsForTier(config.TierDevelopment).Database)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store *Store, email string) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Email:        email,
		Name:         "Seed",
		Role:         user.RoleUser,
		PasswordHash: "x",
		Active:       true,
	})
	require.NoError(t, err)
	return u
}

func TestUserRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := seedUser(t, store, "round@example.com")
	assert.NotEmpty(t, created.ID)

	got, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())

	// The email column collates case-insensitively.
	byEmail, err := store.GetUserByEmail(ctx, "ROUND@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = store.CreateUser(ctx, user.User{Email: "Round@Example.com", Name: "Dup", PasswordHash: "x"})
	assert.Error(t, err, "duplicate email must violate the unique index")

	created.Name = "Renamed"
	updated, err := store.UpdateUser(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	_, err = store.GetUser(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	require.NoError(t, store.DeleteUser(ctx, created.ID))
	err = store.DeleteUser(ctx, created.ID)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestPostPublishedAtNullHandling(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	author := seedUser(t, store, "author@example.com")

	draft, err := store.CreatePost(ctx, post.Post{
		AuthorID: author.ID,
		Title:    "Draft",
		Slug:     "draft",
		Body:     "body",
	})
	require.NoError(t, err)

	// A draft's published_at is stored as NULL and read back as zero.
	got, err := store.GetPost(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)
	assert.True(t, got.PublishedAt.IsZero())

	now := time.Now().UTC()
	got.Published = true
	got.PublishedAt = now
	published, err := store.UpdatePost(ctx, got)
	require.NoError(t, err)
	assert.True(t, published.Published)

	reread, err := store.GetPostBySlug(ctx, "draft")
	require.NoError(t, err)
	assert.True(t, reread.Published)
	assert.WithinDuration(t, now, reread.PublishedAt, time.Second)
}

func TestPostSlugUniqueAndListByAuthor(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := seedUser(t, store, "first@example.com")
	second := seedUser(t, store, "second@example.com")

	_, err := store.CreatePost(ctx, post.Post{AuthorID: first.ID, Title: "One", Slug: "one", Body: "b"})
	require.NoError(t, err)
	_, err = store.CreatePost(ctx, post.Post{AuthorID: second.ID, Title: "Two", Slug: "two", Body: "b"})
	require.NoError(t, err)

	_, err = store.CreatePost(ctx, post.Post{AuthorID: second.ID, Title: "Clash", Slug: "one", Body: "b"})
	assert.Error(t, err, "duplicate slug must violate the unique index")

	all, err := store.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := store.ListPosts(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "one", mine[0].Slug)

	require.NoError(t, store.DeletePost(ctx, mine[0].ID))
	_, err = store.GetPostBySlug(ctx, "one")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestNotificationRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "owner@example.com")
	other := seedUser(t, store, "other@example.com")

	n1, err := store.CreateNotification(ctx, notification.Notification{
		UserID: owner.ID, Kind: notification.KindInfo, Title: "one", Body: "b",
	})
	require.NoError(t, err)
	_, err = store.CreateNotification(ctx, notification.Notification{
		UserID: owner.ID, Kind: notification.KindSystem, Title: "two", Body: "b",
	})
	require.NoError(t, err)
	_, err = store.CreateNotification(ctx, notification.Notification{
		UserID: other.ID, Kind: notification.KindInfo, Title: "theirs", Body: "b",
	})
	require.NoError(t, err)

	list, err := store.ListNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	read, err := store.MarkNotificationRead(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	count, err := store.MarkAllNotificationsRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "the already-read notification is not recounted")

	_, err = store.MarkNotificationRead(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestOpenAcceptsDSNWithQuery(t *testing.T) {
	store, err := Open("file:"+filepath.Join(t.TempDir(), "app.db")+"?cache=shared", config.SettingsForTier(config.TierDevelopment).Database)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.CreateUser(context.Background(), user.User{
		Email: "dsn@example.com", Name: "DSN", PasswordHash: "x", Active: true,
	})
	require.NoError(t, err)
}
