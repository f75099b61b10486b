// Package httpapi exposes the application services over REST.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/launchfoundry/appstack/internal/app"
	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/app/services/base"
	"github.com/launchfoundry/appstack/internal/app/services/users"
	"github.com/launchfoundry/appstack/internal/httputil"
	"github.com/launchfoundry/appstack/internal/middleware"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the core REST API with the full
// middleware stack applied. A nil limiter gets a private one without the
// cleanup lifecycle; servers should pass a limiter they also register with
// the lifecycle manager.
func NewHandler(application *app.Application, registry *prometheus.Registry, limiter *middleware.RateLimiter) http.Handler {
	h := &handler{app: application}
	cfg := application.Config

	r := chi.NewRouter()

	tracing := middleware.NewTracingMiddleware(application.Log().Named("http"), cfg.Logging.LogRequests)
	cors := middleware.NewCORSMiddleware(cfg.Security.AllowedOrigins)
	auth := middleware.NewAuthMiddleware(application.Auth, application.Container, application.Log())
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, application.Log())
	}

	r.Use(tracing.Handler)
	r.Use(cors.Handler)
	r.Use(auth.Handler)
	r.Use(limiter.Handler)

	if registry != nil {
		metrics := middleware.NewMetrics(registry, cfg.App.Name)
		r.Use(metrics.Handler)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.With(middleware.RequireUser).Get("/me", h.me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Patch("/{id}", h.updateUser)
			r.Put("/{id}/role", h.setUserRole)
			r.Delete("/{id}", h.deactivateUser)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.listPosts)
			r.Get("/{id}", h.getPost)
			r.Get("/slug/{slug}", h.getPostBySlug)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Post("/", h.createPost)
				r.Patch("/{id}", h.updatePost)
				r.Post("/{id}/publish", h.publishPost)
				r.Delete("/{id}", h.deletePost)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", h.listNotifications)
			r.Post("/{id}/read", h.markNotificationRead)
			r.Post("/read-all", h.markAllNotificationsRead)
		})

		r.Route("/flags", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/", h.listFlags)
			r.Put("/{key}", h.setFlag)
			r.Delete("/{key}", h.removeFlag)
		})
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": string(h.app.Config.Tier()),
		"version":     h.app.Config.App.Version,
	})
}

// pageList is the wire shape of a paginated collection.
type pageList[T any] struct {
	Items []T           `json:"items"`
	Meta  base.PageMeta `json:"meta"`
}

func pageFromQuery(r *http.Request) base.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return base.Page{Page: page, Limit: limit}
}

func orderFromQuery(r *http.Request) base.SortOrder {
	if r.URL.Query().Get("order") == "desc" {
		return base.SortDesc
	}
	return base.SortAsc
}

// --- auth --------------------------------------------------------------------

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.app.Users.Register(r.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	u, err := h.app.Users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := h.app.Auth.Issue(u.Identity())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, middleware.IdentityFromRequest(r))
}

// --- users -------------------------------------------------------------------

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Users.WithIdentity(middleware.IdentityFromRequest(r))
	items, meta, err := svc.List(r.Context(), users.ListParams{
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
		Order:  orderFromQuery(r),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pageList[user.User]{Items: items, Meta: meta})
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Users.WithIdentity(middleware.IdentityFromRequest(r))
	u, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	svc := h.app.Users.WithIdentity(middleware.IdentityFromRequest(r))
	u, err := svc.Update(r.Context(), chi.URLParam(r, "id"), payload.Name, payload.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) setUserRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role string `json:"role"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	svc := h.app.Users.WithIdentity(middleware.IdentityFromRequest(r))
	u, err := svc.SetRole(r.Context(), chi.URLParam(r, "id"), payload.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Users.WithIdentity(middleware.IdentityFromRequest(r))
	u, err := svc.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}
