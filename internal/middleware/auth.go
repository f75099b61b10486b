// Package middleware provides the HTTP middleware stack: session
// authentication, CORS, rate limiting, request tracing and metrics.
package middleware

import (
	"context"
	"net/http"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/services/auth"
	appcontainer "github.com/launchfoundry/appstack/internal/container"
	"github.com/launchfoundry/appstack/internal/httputil"
	"github.com/launchfoundry/appstack/pkg/logger"
)

type contextKey string

const containerKey contextKey = "container"

// ContainerFromRequest returns the request-scoped container placed by the
// auth middleware, or nil.
func ContainerFromRequest(r *http.Request) *appcontainer.Container {
	c, _ := r.Context().Value(containerKey).(*appcontainer.Container)
	return c
}

// IdentityFromRequest returns the authenticated identity, or nil.
func IdentityFromRequest(r *http.Request) *user.Identity {
	if c := ContainerFromRequest(r); c != nil {
		return c.GetContext().User
	}
	return nil
}

// AuthMiddleware validates session tokens and attaches a request-scoped
// container. Authentication is soft: a request without a token proceeds
// with the root container, a request with an invalid token is rejected,
// and a valid token forks the container with the identity.
type AuthMiddleware struct {
	sessions *auth.Service
	root     *appcontainer.Container
	log      *logger.Logger
}

// NewAuthMiddleware creates the session middleware.
func NewAuthMiddleware(sessions *auth.Service, root *appcontainer.Container, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	return &AuthMiddleware{sessions: sessions, root: root, log: log}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped := m.root

		identity, err := m.sessions.FromRequest(r)
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Warn("session validation failed")
			httputil.WriteError(w, err)
			return
		}
		if identity != nil {
			// Fork rather than mutate: the root container stays anonymous
			// and already-resolved singletons remain visible.
			scoped = m.root.WithUser(identity)
		}

		ctx := context.WithValue(r.Context(), containerKey, scoped)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that carry no authenticated identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromRequest(r) == nil {
			httputil.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
