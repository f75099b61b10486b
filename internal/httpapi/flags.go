package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/launchfoundry/appstack/internal/app/domain/user"
	"github.com/launchfoundry/appstack/internal/errors"
	"github.com/launchfoundry/appstack/internal/flags"
	"github.com/launchfoundry/appstack/internal/httputil"
	"github.com/launchfoundry/appstack/internal/middleware"
)

// requireAdmin guards the flag administration endpoints.
func requireAdmin(r *http.Request) error {
	identity := middleware.IdentityFromRequest(r)
	if identity == nil || identity.Role != user.RoleAdmin {
		return errors.Forbidden("admin role required")
	}
	return nil
}

func (h *handler) listFlags(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.app.Flags.Snapshot())
}

func (h *handler) setFlag(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var payload flags.Flag
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	payload.Key = strings.TrimSpace(chi.URLParam(r, "key"))
	if payload.Key == "" {
		httputil.WriteError(w, errors.Validation("flag key is required"))
		return
	}
	if payload.RolloutPercentage != nil {
		if p := *payload.RolloutPercentage; p < 0 || p > 100 {
			httputil.WriteError(w, errors.Validation("rollout percentage must be between 0 and 100"))
			return
		}
	}

	h.app.Flags.SetFlag(payload)
	httputil.WriteJSON(w, http.StatusOK, payload)
}

func (h *handler) removeFlag(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.app.Flags.RemoveFlag(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}
