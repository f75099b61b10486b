// Package sqlite implements the storage interfaces on SQLite via sqlx.
// The schema is bootstrapped on open so the scaffold needs no external
// migration step.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/storage"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	password_hash TEXT NOT NULL,
	active        INTEGER NOT NULL DEFAULT 1,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	author_id    TEXT NOT NULL REFERENCES users(id),
	title        TEXT NOT NULL,
	slug         TEXT NOT NULL UNIQUE,
	body         TEXT NOT NULL,
	published    INTEGER NOT NULL DEFAULT 0,
	published_at TIMESTAMP,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read);
`

// Store implements the storage interfaces backed by SQLite.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.NotificationStore = (*Store)(nil)

// Open connects to a SQLite database, applies pool settings from the
// database settings group and bootstraps the schema.
func Open(url string, settings config.DatabaseSettings) (*Store, error) {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	dsn := fmt.Sprintf("%s%s_busy_timeout=%d&_fk=1", url, sep, settings.BusyTimeout.Milliseconds())
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(settings.MaxOpenConns)
	db.SetMaxIdleConns(settings.MaxIdleConns)
	db.SetConnMaxLifetime(settings.ConnMaxLifetime)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing handle. The caller owns schema setup.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for container registration.
func (s *Store) DB() *sqlx.DB { return s.db }

// Close closes the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

func notFound(err error, resource string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	return err
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, active, created_at, updated_at)
		VALUES (:id, :email, :name, :role, :password_hash, :active, :created_at, :updated_at)
	`, u)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	existing, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return user.User{}, err
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE users
		SET email = :email, name = :name, role = :role,
		    password_hash = :password_hash, active = :active, updated_at = :updated_at
		WHERE id = :id
	`, u)
	if err != nil {
		return user.User{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return user.User{}, errors.NotFound("user")
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return user.User{}, notFound(err, "user")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = ? COLLATE NOCASE`, email)
	if err != nil {
		return user.User{}, notFound(err, "user")
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	users := []user.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at`)
	return users, err
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// PostStore implementation ----------------------------------------------------

type postRow struct {
	post.Post
	PublishedAt sql.NullTime `db:"published_at"`
}

func (r postRow) toPost() post.Post {
	p := r.Post
	if r.PublishedAt.Valid {
		p.PublishedAt = r.PublishedAt.Time
	}
	return p
}

func publishedAtParam(p post.Post) any {
	if p.PublishedAt.IsZero() {
		return nil
	}
	return p.PublishedAt
}

func (s *Store) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, slug, body, published, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.AuthorID, p.Title, p.Slug, p.Body, p.Published, publishedAtParam(p), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return post.Post{}, err
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	existing, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return post.Post{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, slug = ?, body = ?, published = ?, published_at = ?, updated_at = ?
		WHERE id = ?
	`, p.Title, p.Slug, p.Body, p.Published, publishedAtParam(p), p.UpdatedAt, p.ID)
	if err != nil {
		return post.Post{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return post.Post{}, errors.NotFound("post")
	}
	return p, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (post.Post, error) {
	var row postRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM posts WHERE id = ?`, id)
	if err != nil {
		return post.Post{}, notFound(err, "post")
	}
	return row.toPost(), nil
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (post.Post, error) {
	var row postRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM posts WHERE slug = ?`, slug)
	if err != nil {
		return post.Post{}, notFound(err, "post")
	}
	return row.toPost(), nil
}

func (s *Store) ListPosts(ctx context.Context, authorID string) ([]post.Post, error) {
	query := `SELECT * FROM posts ORDER BY created_at`
	args := []any{}
	if authorID != "" {
		query = `SELECT * FROM posts WHERE author_id = ? ORDER BY created_at`
		args = append(args, authorID)
	}

	rows := []postRow{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	posts := make([]post.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toPost())
	}
	return posts, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return errors.NotFound("post")
	}
	return nil
}

// NotificationStore implementation --------------------------------------------

func (s *Store) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, read, created_at)
		VALUES (:id, :user_id, :kind, :title, :body, :read, :created_at)
	`, n)
	if err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	var n notification.Notification
	err := s.db.GetContext(ctx, &n, `SELECT * FROM notifications WHERE id = ?`, id)
	if err != nil {
		return notification.Notification{}, notFound(err, "notification")
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]notification.Notification, error) {
	notifications := []notification.Notification{}
	err := s.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	return notifications, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return notification.Notification{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return notification.Notification{}, errors.NotFound("notification")
	}
	return s.GetNotification(ctx, id)
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0
	`, userID)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	return int(rows), err
}
