package users

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/infrastructure/api"
	"useradmin/infrastructure/audit"
)

// ConfirmDeleteCommandHandler performs the confirmed delete. The prompt was
// armed by linking to /console/users?confirm_delete={id}; this handler only
// runs after the operator confirmed. Success removes the record from the
// displayed window locally, without a re-fetch; failure re-arms the prompt
// with the same target so the operator can retry or walk away.
func ConfirmDeleteCommandHandler(client *api.Client, registry *Registry, auditSvc *audit.Service) http.HandlerFunc {
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
		if id == "" {
			http.Redirect(w, r, "/console/users?error="+url.QueryEscape("missing user id"), http.StatusSeeOther)
			return
		}

		if err := client.DeleteUser(r.Context(), cred, id); err != nil {
			if errors.Is(err, api.ErrLoginRequired) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			slog.Error("users: delete failed", slog.String("user_uid", id), slog.Any("err", err))
			msg := api.UserMessage(err, "failed to delete user")
			http.Redirect(w, r, "/console/users?confirm_delete="+url.QueryEscape(id)+"&delete_error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}

		if ctrl, ok := registry.Peek(session.ID); ok {
			ctrl.RemoveLocal(id)
		}
		auditSvc.Record(r.Context(), session.Username, "user.delete", "user", id, nil, nil)

		http.Redirect(w, r, "/console/users?status="+url.QueryEscape("user deleted"), http.StatusSeeOther)
	}
}
