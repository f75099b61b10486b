package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/launchfoundry/appstack/internal/app/domain/post"
	"github.com/launchfoundry/appstack/internal/app/services/posts"
	"github.com/launchfoundry/appstack/internal/httputil"
	"github.com/launchfoundry/appstack/internal/middleware"
)

func (h *handler) createPost(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	p, err := svc.Create(r.Context(), payload.Title, payload.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	items, meta, err := svc.List(r.Context(), posts.ListParams{
		AuthorID:      q.Get("author"),
		Search:        q.Get("search"),
		PublishedOnly: q.Get("published") == "true",
		Sort:          q.Get("sort"),
		Order:         orderFromQuery(r),
		Page:          pageFromQuery(r),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pageList[post.Post]{Items: items, Meta: meta})
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	p, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) getPostBySlug(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	p, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title *string `json:"title"`
		Body  *string `json:"body"`
	}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	p, err := svc.Update(r.Context(), chi.URLParam(r, "id"), payload.Title, payload.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) publishPost(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	p, err := svc.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Posts.WithIdentity(middleware.IdentityFromRequest(r))
	if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
