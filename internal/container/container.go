// Package container implements the keyed service registry that wires the
// application together. Services are registered under string tokens as
// lazily-constructed singletons or precomputed values; a derived container
// carries a request-scoped identity while sharing its parent's registrations
// and resolved singletons.
package container

import (
	"sync"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/errors"
)

// Well-known tokens. The registry stays open so applications built on the
// scaffold can register their own services next to these.
const (
	TokenConfig        = "config"
	TokenDB            = "db"
	TokenLogger        = "logger"
	TokenFlags         = "flags"
	TokenAuth          = "auth"
	TokenUsers         = "users"
	TokenPosts         = "posts"
	TokenNotifications = "notifications"
)

// Constructor builds a service instance. It receives the container so it can
// resolve its own collaborators.
type Constructor func(c *Container) (any, error)

type registration struct {
	ctor      Constructor
	singleton bool
	instance  any
	resolved  bool
}

// registry is the registration table shared by a container and all of its
// derived containers. A single mutex guards it across the family.
type registry struct {
	mu       sync.Mutex
	services map[string]*registration
}

// Context carries per-container state: the tier the container was built for
// and the identity of the current user, when authenticated.
type Context struct {
	Env  config.Tier
	User *user.Identity
}

// Container maps tokens to services. A derived container (WithUser) shares
// the registry by reference but owns its Context.
type Container struct {
	reg *registry
	ctx Context
}

// Option adjusts a registration.
type Option func(*registration)

// Transient marks a registration as non-singleton: every resolve constructs
// a fresh instance.
func Transient() Option {
	return func(r *registration) { r.singleton = false }
}

// New creates an empty container for the given tier.
func New(tier config.Tier) *Container {
	return &Container{
		reg: &registry{services: make(map[string]*registration)},
		ctx: Context{Env: tier},
	}
}

// Register stores a constructor under a token. Registrations default to
// singleton; no instance is created until the first resolve. Re-registering
// a token is an error.
func (c *Container) Register(token string, ctor Constructor, opts ...Option) error {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	if _, exists := c.reg.services[token]; exists {
		return errors.Conflict("token already registered: " + token)
	}

	r := &registration{ctor: ctor, singleton: true}
	for _, opt := range opts {
		opt(r)
	}
	c.reg.services[token] = r
	return nil
}

// RegisterValue stores a precomputed value as its own resolved instance.
// Every resolve returns the same value regardless of the singleton flag.
func (c *Container) RegisterValue(token string, value any) error {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	if _, exists := c.reg.services[token]; exists {
		return errors.Conflict("token already registered: " + token)
	}

	c.reg.services[token] = &registration{instance: value, resolved: true, singleton: true}
	return nil
}

// Resolve returns the instance for a token, constructing it on first use.
// An unregistered token is a programming error surfaced at resolve time.
func (c *Container) Resolve(token string) (any, error) {
	c.reg.mu.Lock()
	r, ok := c.reg.services[token]
	if !ok {
		c.reg.mu.Unlock()
		return nil, errors.ServiceNotRegistered(token)
	}
	if r.resolved {
		instance := r.instance
		c.reg.mu.Unlock()
		return instance, nil
	}
	c.reg.mu.Unlock()

	// Construct outside the lock: constructors resolve their own
	// dependencies through the same registry.
	instance, err := r.ctor(c)
	if err != nil {
		return nil, err
	}

	if r.singleton {
		c.reg.mu.Lock()
		if r.resolved {
			// Another resolve won the race; keep the first instance.
			instance = r.instance
		} else {
			r.instance = instance
			r.resolved = true
		}
		c.reg.mu.Unlock()
	}
	return instance, nil
}

// MustResolve resolves or panics. Intended for wire-time lookups where a
// missing token means the application was assembled wrong.
func (c *Container) MustResolve(token string) any {
	v, err := c.Resolve(token)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether a token is registered. No construction happens.
func (c *Container) Has(token string) bool {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	_, ok := c.reg.services[token]
	return ok
}

// WithUser derives a container carrying the given identity. The derivation
// shares the parent's registration table by reference, so singletons already
// resolved through the parent are visible, while the identity is private to
// the derived container. This is the preferred way to attach an identity.
func (c *Container) WithUser(identity *user.Identity) *Container {
	return &Container{
		reg: c.reg,
		ctx: Context{Env: c.ctx.Env, User: identity},
	}
}

// SetUser mutates this container's context in place. Used by flows that
// already minted a per-request container and want to carry the identity
// onward without forking again.
func (c *Container) SetUser(identity *user.Identity) {
	c.ctx.User = identity
}

// GetContext returns the container's context.
func (c *Container) GetContext() Context {
	return c.ctx
}

// Resolve is the typed counterpart of Container.Resolve.
func Resolve[T any](c *Container, token string) (T, error) {
	var zero T
	v, err := c.Resolve(token)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Internal("service has unexpected type: "+token, nil)
	}
	return typed, nil
}
