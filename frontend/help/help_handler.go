package help

import (
	"net/http"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/infrastructure/rbac"
)

// HelpPageQueryHandler renders the role-aware help page.
func HelpPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := PageData{}
		for _, role := range session.Roles {
			switch role {
			case rbac.RoleAdmin:
				data.IsAdmin = true
			case rbac.RoleViewer:
				data.IsViewer = true
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := HelpPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render help page", http.StatusInternalServerError)
			return
		}
	}
}
