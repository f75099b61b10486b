// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/storage"
	"github.com/launchfoundry/appstack/internal/errors"
)

// Store holds all entities in maps guarded by a single mutex.
type Store struct {
	mu            sync.RWMutex
	users         map[string]user.User
	usersByEmail  map[string]string
	posts         map[string]post.Post
	postsBySlug   map[string]string
	notifications map[string]notification.Notification
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.NotificationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:         make(map[string]user.User),
		usersByEmail:  make(map[string]string),
		posts:         make(map[string]post.Post),
		postsBySlug:   make(map[string]string),
		notifications: make(map[string]notification.Notification),
	}
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, errors.Conflict("email already registered")
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, errors.NotFound("user")
	}

	newEmail := strings.ToLower(u.Email)
	oldEmail := strings.ToLower(existing.Email)
	if newEmail != oldEmail {
		if _, taken := s.usersByEmail[newEmail]; taken {
			return user.User{}, errors.Conflict("email already registered")
		}
		delete(s.usersByEmail, oldEmail)
		s.usersByEmail[newEmail] = u.ID
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, errors.NotFound("user")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return user.User{}, errors.NotFound("user")
	}
	return s.users[id], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return errors.NotFound("user")
	}
	delete(s.users, id)
	delete(s.usersByEmail, strings.ToLower(u.Email))
	return nil
}

// PostStore implementation ----------------------------------------------------

func (s *Store) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postsBySlug[p.Slug]; exists {
		return post.Post{}, errors.Conflict("slug already in use")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.posts[p.ID] = p
	s.postsBySlug[p.Slug] = p.ID
	return p, nil
}

func (s *Store) UpdatePost(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[p.ID]
	if !ok {
		return post.Post{}, errors.NotFound("post")
	}
	if p.Slug != existing.Slug {
		if _, taken := s.postsBySlug[p.Slug]; taken {
			return post.Post{}, errors.Conflict("slug already in use")
		}
		delete(s.postsBySlug, existing.Slug)
		s.postsBySlug[p.Slug] = p.ID
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.posts[p.ID] = p
	return p, nil
}

func (s *Store) GetPost(_ context.Context, id string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return post.Post{}, errors.NotFound("post")
	}
	return p, nil
}

func (s *Store) GetPostBySlug(_ context.Context, slug string) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.postsBySlug[slug]
	if !ok {
		return post.Post{}, errors.NotFound("post")
	}
	return s.posts[id], nil
}

func (s *Store) ListPosts(_ context.Context, authorID string) ([]post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]post.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if authorID != "" && p.AuthorID != authorID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return errors.NotFound("post")
	}
	delete(s.posts, id)
	delete(s.postsBySlug, p.Slug)
	return nil
}

// NotificationStore implementation --------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()
	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) GetNotification(_ context.Context, id string) (notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return notification.Notification{}, errors.NotFound("notification")
	}
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notification.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return notification.Notification{}, errors.NotFound("notification")
	}
	n.Read = true
	s.notifications[id] = n
	return n, nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}
