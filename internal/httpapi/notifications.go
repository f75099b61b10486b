package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/launchfoundry/appstack/internal/app/domain/notification"
	"github.com/launchfoundry/appstack/internal/app/services/notifications"
	"github.com/launchfoundry/appstack/internal/httputil"
	"github.com/launchfoundry/appstack/internal/middleware"
)

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Notifications.WithIdentity(middleware.IdentityFromRequest(r))
	items, meta, err := svc.List(r.Context(), notifications.ListParams{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Page:       pageFromQuery(r),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pageList[notification.Notification]{Items: items, Meta: meta})
}

func (h *handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Notifications.WithIdentity(middleware.IdentityFromRequest(r))
	n, err := svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	svc := h.app.Notifications.WithIdentity(middleware.IdentityFromRequest(r))
	count, err := svc.MarkAllRead(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"updated": count})
}
