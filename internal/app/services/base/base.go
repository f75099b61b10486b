// Package base provides the shared service foundation. Concrete services
// embed Service to gain access to the composed config, the feature flag
// evaluator and the current identity, plus generic list-shaping helpers.
package base

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/internal/errors"
	"github.com/launchfoundry/appstack/internal/flags"
	"github.com/launchfoundry/appstack/pkg/logger"
)

// Service is embedded by every business service.
type Service struct {
	DB     *sqlx.DB
	Config config.Config
	Flags  *flags.Evaluator
	User   *user.Identity
	Log    *logger.Logger
}

// FromContainer builds a Service from a container. Missing registrations
// degrade to empty-shaped stand-ins so a service constructed outside the
// full wiring (tests, scripts) still works.
func FromContainer(c *container.Container) Service {
	s := Service{
		Config: config.Config{},
		Log:    logger.NewDefault("service"),
	}
	if c == nil {
		s.Flags = flags.New(config.TierDevelopment, nil)
		return s
	}

	ctx := c.GetContext()
	s.User = ctx.User

	if cfg, err := container.Resolve[config.Config](c, container.TokenConfig); err == nil {
		s.Config = cfg
	}
	if db, err := container.Resolve[*sqlx.DB](c, container.TokenDB); err == nil {
		s.DB = db
	}
	if ev, err := container.Resolve[*flags.Evaluator](c, container.TokenFlags); err == nil {
		s.Flags = ev
	} else {
		s.Flags = flags.New(ctx.Env, nil)
	}
	if log, err := container.Resolve[*logger.Logger](c, container.TokenLogger); err == nil {
		s.Log = log
	}
	return s
}

// RequireUser returns the current identity or an authentication failure.
func (s *Service) RequireUser() (*user.Identity, error) {
	if s.User == nil {
		return nil, errors.Unauthorized("")
	}
	return s.User, nil
}

// HasRole reports whether the current identity carries the role.
func (s *Service) HasRole(role string) bool {
	return s.User != nil && s.User.Role == role
}

// RequireRole fails when the current identity lacks the role.
func (s *Service) RequireRole(role string) error {
	if s.User == nil {
		return errors.Unauthorized("")
	}
	if s.User.Role != role {
		return errors.Forbidden("role " + role + " required")
	}
	return nil
}

// IsFeatureEnabled evaluates a flag against the current identity.
func (s *Service) IsFeatureEnabled(key string) bool {
	if s.Flags == nil {
		return false
	}
	return s.Flags.IsEnabled(key, s.User)
}

// RequireFeature fails when the flag is disabled for the current identity.
func (s *Service) RequireFeature(key string) error {
	if !s.IsFeatureEnabled(key) {
		return errors.FeatureDisabled(key)
	}
	return nil
}

// Page describes a pagination request. Pages are 1-indexed.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PageMeta describes the shape of a paginated result.
type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

const defaultPageLimit = 20

// ApplyPagination slices items with 1-indexed page math. A page beyond the
// range yields an empty slice, never an error.
func ApplyPagination[T any](items []T, p Page) ([]T, PageMeta) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}

	total := len(items)
	meta := PageMeta{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}

	offset := (p.Page - 1) * p.Limit
	if offset >= total {
		return []T{}, meta
	}
	end := offset + p.Limit
	if end > total {
		end = total
	}
	return items[offset:end], meta
}

// SortOrder selects ascending or descending sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ApplySorting sorts items by the extracted key's natural ordering. The
// sort is stable so ties preserve their relative order. Descending negates
// the ascending comparison. A new slice is returned; the input is
// untouched.
func ApplySorting[T any](items []T, key func(T) any, order SortOrder) []T {
	out := make([]T, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		if order == SortDesc {
			return naturalLess(key(out[j]), key(out[i]))
		}
		return naturalLess(key(out[i]), key(out[j]))
	})
	return out
}

func naturalLess(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case int:
		bv, ok := b.(int)
		return ok && av < bv
	case int64:
		bv, ok := b.(int64)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Before(bv)
	case bool:
		bv, ok := b.(bool)
		return ok && !av && bv
	}
	return false
}

// ApplyTextSearch filters items to those where ANY extracted field contains
// the term, case-insensitively. An empty term returns the input unchanged.
func ApplyTextSearch[T any](items []T, term string, fields func(T) []string) []T {
	if term == "" {
		return items
	}
	needle := strings.ToLower(term)

	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
