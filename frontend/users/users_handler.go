package users

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/frontend/shared/html"
	"useradmin/infrastructure/api"
	"useradmin/infrastructure/cache"
	"useradmin/infrastructure/rbac"
	"useradmin/models"
)

// UsersPageQueryHandler renders the user listing page: filter card, result
// table, pagination, and the delete confirmation dialog when one is armed.
func UsersPageQueryHandler(client *api.Client, registry *Registry, refCache *cache.OptionsCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		cred, ok := sessioncontext.GetCredentialFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctrl, created := registry.For(session.ID, cred)
		if created {
			ctrl.Refresh()
		}
		ctrl.WaitIdle(r.Context())

		state := ctrl.Snapshot()
		if state.LoginRequired {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		orgs, roles, refWarning := loadReferenceData(r, client, cred, refCache)

		canEdit := hasRole(session.Roles, rbac.RoleAdmin)
		data := PageData{
			State:         state,
			Organisations: orgs,
			Roles:         roles,
			RefWarning:    refWarning,
			Status:        r.URL.Query().Get("status"),
			ErrorMessage:  r.URL.Query().Get("error"),
			CSRFToken:     html.TokenFromRequest(r),
			CanEdit:       canEdit,
			DeleteTarget:  r.URL.Query().Get("confirm_delete"),
			DeleteError:   r.URL.Query().Get("delete_error"),
		}
		if !canEdit {
			data.DeleteTarget = ""
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := UsersListPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render users page", http.StatusInternalServerError)
			return
		}
	}
}

// loadReferenceData fetches organisation and role options through the TTL
// cache. Failures degrade to empty selectable sets plus a warning instead
// of blocking the page.
func loadReferenceData(r *http.Request, client *api.Client, cred api.Credential, refCache *cache.OptionsCache) (orgs, roles []models.Option, warning string) {
	var warned bool

	orgs, ok := refCache.Get("organisations")
	if !ok {
		fetched, err := client.ListOrganisations(r.Context(), cred)
		if err != nil {
			slog.Warn("users: load organisations failed", slog.Any("err", err))
			warned = true
		} else {
			refCache.Put("organisations", fetched)
			orgs = fetched
		}
	}

	roles, ok = refCache.Get("roles")
	if !ok {
		fetched, err := client.ListRoles(r.Context(), cred)
		if err != nil {
			slog.Warn("users: load roles failed", slog.Any("err", err))
			warned = true
		} else {
			refCache.Put("roles", fetched)
			roles = fetched
		}
	}

	if warned {
		warning = "reference data could not be loaded; filters may be incomplete"
	}
	return orgs, roles, warning
}

// SearchCommandHandler feeds the typed term into the debounced search.
func SearchCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, r *http.Request) string {
		ctrl.Search(r.FormValue("term"))
		return ""
	})
}

// FilterOrganisationCommandHandler applies the organisation filter.
func FilterOrganisationCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, r *http.Request) string {
		ctrl.FilterByOrganisation(r.FormValue("org_uid"))
		return ""
	})
}

// FilterRoleCommandHandler applies the role filter.
func FilterRoleCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, r *http.Request) string {
		ctrl.FilterByRole(r.FormValue("role_id"))
		return ""
	})
}

// RefreshCommandHandler re-runs the current filter fetch.
func RefreshCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, _ *http.Request) string {
		ctrl.Refresh()
		return ""
	})
}

// ChangePageCommandHandler moves the local page window.
func ChangePageCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, r *http.Request) string {
		index, err := strconv.Atoi(r.FormValue("page"))
		if err != nil {
			return "invalid page index"
		}
		ctrl.ChangePage(index)
		return ""
	})
}

// PageSizeCommandHandler adjusts the local page size.
func PageSizeCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, r *http.Request) string {
		size, err := strconv.Atoi(r.FormValue("size"))
		if err != nil || size <= 0 {
			return "invalid page size"
		}
		ctrl.ChangePageSize(size)
		return ""
	})
}

// ViewModeCommandHandler toggles the table/cards rendering.
func ViewModeCommandHandler(registry *Registry) http.HandlerFunc {
	return withController(registry, func(ctrl *Controller, r *http.Request) string {
		ctrl.SetViewMode(r.FormValue("mode"))
		return ""
	})
}

// withController wraps the PRG boilerplate shared by every listing command:
// resolve the session's controller, run the command, bounce back to the
// list page.
func withController(registry *Registry, fn func(ctrl *Controller, r *http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		cred, ok := sessioncontext.GetCredentialFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/console/users?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		ctrl, created := registry.For(session.ID, cred)
		if created {
			ctrl.Refresh()
		}
		if msg := fn(ctrl, r); msg != "" {
			http.Redirect(w, r, "/console/users?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/console/users", http.StatusSeeOther)
	}
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
