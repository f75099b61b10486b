// Package posts implements authoring and publishing of content entries.
package posts

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/services/base"
	"github.com/launchfoundry/appstack/internal/app/storage"
	"github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/internal/errors"
)

// Service manages posts.
type Service struct {
	base.Service
	store storage.PostStore
}

// New creates a posts service.
func New(c *container.Container, store storage.PostStore) *Service {
	s := &Service{Service: base.FromContainer(c), store: store}
	s.Log = s.Log.Named("posts")
	return s
}

// ListParams shapes a post listing.
type ListParams struct {
	AuthorID      string
	Search        string
	PublishedOnly bool
	Sort          string
	Order         base.SortOrder
	Page          base.Page
}

// Create adds a draft post authored by the current user.
func (s *Service) Create(ctx context.Context, title, body string) (post.Post, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return post.Post{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return post.Post{}, errors.Validation("title is required")
	}

	p, err := s.store.CreatePost(ctx, post.Post{
		AuthorID: identity.ID,
		Title:    title,
		Slug:     Slugify(title),
		Body:     body,
	})
	if err != nil {
		return post.Post{}, err
	}

	s.Log.WithField("post_id", p.ID).WithField("author_id", p.AuthorID).Info("post created")
	return p, nil
}

// Get fetches a post by id. Drafts are visible only to their author and
// admins.
func (s *Service) Get(ctx context.Context, id string) (post.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return post.Post{}, err
	}
	return s.guardDraft(p)
}

// GetBySlug fetches a post by slug with the same draft visibility rule.
func (s *Service) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	p, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		return post.Post{}, err
	}
	return s.guardDraft(p)
}

func (s *Service) guardDraft(p post.Post) (post.Post, error) {
	if p.Published {
		return p, nil
	}
	if s.User != nil && (s.User.ID == p.AuthorID || s.HasRole(user.RoleAdmin)) {
		return p, nil
	}
	return post.Post{}, errors.NotFound("post")
}

// List returns a shaped page of posts. Anonymous callers see published
// posts only.
func (s *Service) List(ctx context.Context, params ListParams) ([]post.Post, base.PageMeta, error) {
	posts, err := s.store.ListPosts(ctx, params.AuthorID)
	if err != nil {
		return nil, base.PageMeta{}, err
	}

	visible := posts[:0:0]
	for _, p := range posts {
		if params.PublishedOnly && !p.Published {
			continue
		}
		if p.Published || (s.User != nil && (p.AuthorID == s.User.ID || s.HasRole(user.RoleAdmin))) {
			visible = append(visible, p)
		}
	}
	posts = visible

	posts = base.ApplyTextSearch(posts, params.Search, func(p post.Post) []string {
		return []string{p.Title, p.Body}
	})

	switch params.Sort {
	case "title":
		posts = base.ApplySorting(posts, func(p post.Post) any { return p.Title }, params.Order)
	case "created_at":
		posts = base.ApplySorting(posts, func(p post.Post) any { return p.CreatedAt }, params.Order)
	}

	page, meta := base.ApplyPagination(posts, params.Page)
	return page, meta, nil
}

// Update edits a post. Author or admin only.
func (s *Service) Update(ctx context.Context, id string, title, body *string) (post.Post, error) {
	p, err := s.requireOwnership(ctx, id)
	if err != nil {
		return post.Post{}, err
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			return post.Post{}, errors.Validation("title cannot be empty")
		}
		p.Title = trimmed
		p.Slug = Slugify(trimmed)
	}
	if body != nil {
		p.Body = *body
	}

	p, err = s.store.UpdatePost(ctx, p)
	if err != nil {
		return post.Post{}, err
	}
	s.Log.WithField("post_id", p.ID).Info("post updated")
	return p, nil
}

// Publish makes a post publicly visible. Author or admin only.
func (s *Service) Publish(ctx context.Context, id string) (post.Post, error) {
	p, err := s.requireOwnership(ctx, id)
	if err != nil {
		return post.Post{}, err
	}
	if p.Published {
		return p, nil
	}

	p.Published = true
	p.PublishedAt = time.Now().UTC()
	p, err = s.store.UpdatePost(ctx, p)
	if err != nil {
		return post.Post{}, err
	}
	s.Log.WithField("post_id", p.ID).Info("post published")
	return p, nil
}

// Delete removes a post. Author or admin only.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.requireOwnership(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.Log.WithField("post_id", id).Info("post deleted")
	return nil
}

func (s *Service) requireOwnership(ctx context.Context, id string) (post.Post, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return post.Post{}, err
	}
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return post.Post{}, err
	}
	if p.AuthorID != identity.ID && !s.HasRole(user.RoleAdmin) {
		return post.Post{}, errors.Forbidden("only the author can modify this post")
	}
	return p, nil
}

// WithIdentity returns a copy of the service bound to a different identity.
func (s *Service) WithIdentity(identity *user.Identity) *Service {
	clone := *s
	clone.User = identity
	return &clone
}

// Slugify lowercases a title and collapses non-alphanumeric runs into
// single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
