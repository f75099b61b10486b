// Package app assembles the application: it builds the root service
// container, registers configuration, stores and business services, and
// manages their lifecycle.
package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	authsvc "github.com/launchfoundry/appstack/internal/app/services/auth"
	notificationsvc "github.com/launchfoundry/appstack/internal/app/services/notifications"
	postsvc "github.com/launchfoundry/appstack/internal/app/services/posts"
	usersvc "github.com/launchfoundry/appstack/internal/app/services/users"
	"github.com/launchfoundry/appstack/internal/app/storage"
	"github.com/launchfoundry/appstack/internal/app/storage/memory"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/internal/flags"
	"github.com/launchfoundry/appstack/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users         storage.UserStore
	Posts         storage.PostStore
	Notifications storage.NotificationStore

	// DB is the optional shared handle registered for services that need
	// raw query access.
	DB *sqlx.DB
}

// Application ties the services together around one root container.
type Application struct {
	Container *container.Container
	Config    config.Config
	Flags     *flags.Evaluator

	Auth          *authsvc.Service
	Users         *usersvc.Service
	Posts         *postsvc.Service
	Notifications *notificationsvc.Service

	log *logger.Logger
}

// New builds a fully initialised application with the provided stores.
func New(cfg config.Config, stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.New("app", logger.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Posts == nil {
		stores.Posts = mem
	}
	if stores.Notifications == nil {
		stores.Notifications = mem
	}

	root := container.New(cfg.Tier())
	evaluator := flags.New(cfg.Tier(), cfg.Features)

	if err := root.RegisterValue(container.TokenConfig, cfg); err != nil {
		return nil, fmt.Errorf("register config: %w", err)
	}
	if err := root.RegisterValue(container.TokenLogger, log); err != nil {
		return nil, fmt.Errorf("register logger: %w", err)
	}
	if err := root.RegisterValue(container.TokenFlags, evaluator); err != nil {
		return nil, fmt.Errorf("register flags: %w", err)
	}
	if stores.DB != nil {
		if err := root.RegisterValue(container.TokenDB, stores.DB); err != nil {
			return nil, fmt.Errorf("register db: %w", err)
		}
	}

	registrations := []struct {
		token string
		ctor  container.Constructor
	}{
		{container.TokenAuth, func(c *container.Container) (any, error) {
			return authsvc.New(cfg, log.Named("auth"))
		}},
		{container.TokenUsers, func(c *container.Container) (any, error) {
			return usersvc.New(c, stores.Users), nil
		}},
		{container.TokenPosts, func(c *container.Container) (any, error) {
			return postsvc.New(c, stores.Posts), nil
		}},
		{container.TokenNotifications, func(c *container.Container) (any, error) {
			return notificationsvc.New(c, stores.Notifications), nil
		}},
	}
	for _, r := range registrations {
		if err := root.Register(r.token, r.ctor); err != nil {
			return nil, fmt.Errorf("register %s: %w", r.token, err)
		}
	}

	auth, err := container.Resolve[*authsvc.Service](root, container.TokenAuth)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}
	users, err := container.Resolve[*usersvc.Service](root, container.TokenUsers)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	posts, err := container.Resolve[*postsvc.Service](root, container.TokenPosts)
	if err != nil {
		return nil, fmt.Errorf("resolve posts: %w", err)
	}
	notifications, err := container.Resolve[*notificationsvc.Service](root, container.TokenNotifications)
	if err != nil {
		return nil, fmt.Errorf("resolve notifications: %w", err)
	}

	return &Application{
		Container:     root,
		Config:        cfg,
		Flags:         evaluator,
		Auth:          auth,
		Users:         users,
		Posts:         posts,
		Notifications: notifications,
		log:           log,
	}, nil
}

// Log returns the application logger.
func (a *Application) Log() *logger.Logger {
	return a.log
}
