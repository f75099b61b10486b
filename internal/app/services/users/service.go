// Package users implements account registration, authentication and
// administration.
package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/services/base"
	"github.com/launchfoundry/appstack/internal/app/storage"
	"github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/internal/errors"
)

// Service manages user accounts.
type Service struct {
	base.Service
	store storage.UserStore
}

// New creates a users service.
func New(c *container.Container, store storage.UserStore) *Service {
	s := &Service{Service: base.FromContainer(c), store: store}
	s.Log = s.Log.Named("users")
	return s
}

// ListParams shapes a user listing.
type ListParams struct {
	Search string
	Sort   string
	Order  base.SortOrder
	Page   base.Page
}

// Register creates a new account with a bcrypt-hashed password. The cost
// comes from the tier's auth settings.
func (s *Service) Register(ctx context.Context, email, name, password string) (user.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, errors.Validation("a valid email is required")
	}
	if name == "" {
		return user.User{}, errors.Validation("name is required")
	}
	if len(password) < 8 {
		return user.User{}, errors.Validation("password must be at least 8 characters")
	}

	cost := s.Config.Auth.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return user.User{}, errors.Internal("hash password", err)
	}

	u, err := s.store.CreateUser(ctx, user.User{
		Email:        email,
		Name:         name,
		Role:         user.RoleUser,
		PasswordHash: string(hash),
		Active:       true,
	})
	if err != nil {
		return user.User{}, err
	}

	s.Log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Authenticate verifies credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return user.User{}, errors.Unauthorized("invalid credentials")
		}
		return user.User{}, err
	}
	if !u.Active {
		return user.User{}, errors.Unauthorized("account is deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return user.User{}, errors.Unauthorized("invalid credentials")
	}
	return u, nil
}

// Get fetches an account. Users can read themselves; reading others
// requires the admin role.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return user.User{}, err
	}
	if identity.ID != id {
		if err := s.RequireRole(user.RoleAdmin); err != nil {
			return user.User{}, err
		}
	}
	return s.store.GetUser(ctx, id)
}

// List returns a shaped page of accounts. Admin only.
func (s *Service) List(ctx context.Context, params ListParams) ([]user.User, base.PageMeta, error) {
	if err := s.RequireRole(user.RoleAdmin); err != nil {
		return nil, base.PageMeta{}, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, base.PageMeta{}, err
	}

	users = base.ApplyTextSearch(users, params.Search, func(u user.User) []string {
		return []string{u.Email, u.Name}
	})

	switch params.Sort {
	case "email":
		users = base.ApplySorting(users, func(u user.User) any { return u.Email }, params.Order)
	case "name":
		users = base.ApplySorting(users, func(u user.User) any { return u.Name }, params.Order)
	case "created_at":
		users = base.ApplySorting(users, func(u user.User) any { return u.CreatedAt }, params.Order)
	}

	page, meta := base.ApplyPagination(users, params.Page)
	return page, meta, nil
}

// Update changes name and email of an account. Users can update
// themselves; admins can update anyone.
func (s *Service) Update(ctx context.Context, id string, name, email *string) (user.User, error) {
	identity, err := s.RequireUser()
	if err != nil {
		return user.User{}, err
	}
	if identity.ID != id {
		if err := s.RequireRole(user.RoleAdmin); err != nil {
			return user.User{}, err
		}
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return user.User{}, errors.Validation("name cannot be empty")
		}
		u.Name = trimmed
	}
	if email != nil {
		trimmed := strings.TrimSpace(strings.ToLower(*email))
		if !strings.Contains(trimmed, "@") {
			return user.User{}, errors.Validation("a valid email is required")
		}
		u.Email = trimmed
	}

	u, err = s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.Log.WithField("user_id", u.ID).Info("user updated")
	return u, nil
}

// SetRole changes an account's role. Admin only.
func (s *Service) SetRole(ctx context.Context, id, role string) (user.User, error) {
	if err := s.RequireRole(user.RoleAdmin); err != nil {
		return user.User{}, err
	}
	if role != user.RoleUser && role != user.RoleAdmin {
		return user.User{}, errors.Validation("unknown role: " + role)
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	u.Role = role
	u, err = s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.Log.WithField("user_id", u.ID).WithField("role", role).Info("user role changed")
	return u, nil
}

// Deactivate disables an account without deleting it. Admin only.
func (s *Service) Deactivate(ctx context.Context, id string) (user.User, error) {
	if err := s.RequireRole(user.RoleAdmin); err != nil {
		return user.User{}, err
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if !u.Active {
		return u, nil
	}
	u.Active = false
	u, err = s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.Log.WithField("user_id", u.ID).Warn("user deactivated")
	return u, nil
}

// WithIdentity returns a copy of the service bound to a different identity.
// Handlers use it when the request container was forked after construction.
func (s *Service) WithIdentity(identity *user.Identity) *Service {
	clone := *s
	clone.User = identity
	return &clone
}
