package users

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/frontend/shared/html"
	"useradmin/infrastructure/api"
	"useradmin/infrastructure/rbac"
)

// DetailQueryHandler fetches one record and renders the read-only detail
// view. A fetch failure sends the operator back to the list with an error;
// the detail view never opens half-loaded.
func DetailQueryHandler(client *api.Client) http.HandlerFunc {
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

		id := chi.URLParam(r, "id")
		user, err := client.GetUser(r.Context(), cred, id)
		if err != nil {
			if errors.Is(err, api.ErrLoginRequired) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			slog.Error("users: load detail failed", slog.String("user_uid", id), slog.Any("err", err))
			msg := api.UserMessage(err, "failed to load user details")
			http.Redirect(w, r, "/console/users?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}

		data := DetailData{
			User:      user,
			CSRFToken: html.TokenFromRequest(r),
			CanEdit:   hasRole(session.Roles, rbac.RoleAdmin),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := UserDetailPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render user details", http.StatusInternalServerError)
			return
		}
	}
}
