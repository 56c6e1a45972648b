package userform

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/frontend/shared/html"
	users "useradmin/frontend/users"
	"useradmin/infrastructure/api"
	"useradmin/infrastructure/audit"
	"useradmin/models"
)

// NewFormQueryHandler opens a fresh create form for the session and bounces
// to the form page.
func NewFormQueryHandler(client *api.Client, registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, cred, ok := sessionAndCredential(w, r)
		if !ok {
			return
		}
		registry.Open(session.ID, New(client, cred))
		http.Redirect(w, r, "/console/userform", http.StatusSeeOther)
	}
}

// EditFormQueryHandler fetches the record and opens a form seeded from it.
// A failed fetch bounces back to the list with an error instead of opening
// a half-seeded form.
func EditFormQueryHandler(client *api.Client, registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, cred, ok := sessionAndCredential(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		user, err := client.GetUser(r.Context(), cred, id)
		if err != nil {
			if errors.Is(err, api.ErrLoginRequired) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			msg := api.UserMessage(err, "failed to load user")
			http.Redirect(w, r, "/console/users?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}
		registry.Open(session.ID, NewForEdit(client, cred, user))
		http.Redirect(w, r, "/console/userform", http.StatusSeeOther)
	}
}

// FormPageQueryHandler renders the session's open form. Without one it
// bounces to the list; a stale bookmark of /console/userform should not
// 500.
func FormPageQueryHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _, ok := sessionAndCredential(w, r)
		if !ok {
			return
		}
		form, ok := registry.Get(session.ID)
		if !ok {
			http.Redirect(w, r, "/console/users", http.StatusSeeOther)
			return
		}
		form.WaitReady(r.Context())

		data := FormPageData{
			State:     form.Snapshot(),
			CSRFToken: html.TokenFromRequest(r),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := FormPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render form page", http.StatusInternalServerError)
		}
	}
}

// ToggleOrganisationCommandHandler flips one organisation in or out of the
// selection.
func ToggleOrganisationCommandHandler(registry *Registry) http.HandlerFunc {
	return withForm(registry, func(form *Form, r *http.Request) {
		form.ToggleOrganisation(r.FormValue("org_uid"))
	})
}

// ToggleRoleCommandHandler flips one role on one selected organisation.
func ToggleRoleCommandHandler(registry *Registry) http.HandlerFunc {
	return withForm(registry, func(form *Form, r *http.Request) {
		form.ToggleRole(r.FormValue("org_uid"), r.FormValue("role_id"))
	})
}

// NextCommandHandler advances the workflow. Posted personal fields are
// applied first so the personal-data step validates what the user actually
// typed.
func NextCommandHandler(registry *Registry) http.HandlerFunc {
	return withForm(registry, func(form *Form, r *http.Request) {
		applyPersonalFields(form, r)
		form.Next()
	})
}

// BackCommandHandler steps backwards, keeping any typed fields.
func BackCommandHandler(registry *Registry) http.HandlerFunc {
	return withForm(registry, func(form *Form, r *http.Request) {
		applyPersonalFields(form, r)
		form.Back()
	})
}

func applyPersonalFields(form *Form, r *http.Request) {
	for _, name := range []string{"username", "firstName", "lastName", "mail", "phone"} {
		if !r.Form.Has(name) {
			continue
		}
		form.SetPersonalField(name, r.FormValue(name))
	}
}

// SubmitCommandHandler sends the assembled payload. Success refreshes the
// session's listing, records the audit row, and closes the form; failure
// re-renders the form with everything the user entered intact.
func SubmitCommandHandler(registry *Registry, listing *users.Registry, auditor *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _, ok := sessionAndCredential(w, r)
		if !ok {
			return
		}
		form, ok := registry.Get(session.ID)
		if !ok {
			http.Redirect(w, r, "/console/users", http.StatusSeeOther)
			return
		}

		saved, err := form.Submit(r.Context())
		if err != nil {
			if errors.Is(err, api.ErrLoginRequired) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			http.Redirect(w, r, "/console/userform", http.StatusSeeOther)
			return
		}

		action, status := "user.create", "user created"
		var before any
		if original, editing := form.Original(); editing {
			action, status = "user.update", "user updated"
			before = original
		}
		auditor.Record(r.Context(), session.Username, action, "user", saved.UserUID, before, saved)

		registry.Drop(session.ID)
		if ctrl, ok := listing.Peek(session.ID); ok {
			ctrl.Refresh()
		}
		http.Redirect(w, r, "/console/users?status="+url.QueryEscape(status), http.StatusSeeOther)
	}
}

// CancelCommandHandler abandons the form.
func CancelCommandHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _, ok := sessionAndCredential(w, r)
		if !ok {
			return
		}
		registry.Drop(session.ID)
		http.Redirect(w, r, "/console/users", http.StatusSeeOther)
	}
}

// withForm wraps the PRG boilerplate shared by the step commands: resolve
// the session's form, run the command, bounce back to the form page.
func withForm(registry *Registry, fn func(form *Form, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _, ok := sessionAndCredential(w, r)
		if !ok {
			return
		}
		form, ok := registry.Get(session.ID)
		if !ok {
			http.Redirect(w, r, "/console/users", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/console/userform", http.StatusSeeOther)
			return
		}
		fn(form, r)
		http.Redirect(w, r, "/console/userform", http.StatusSeeOther)
	}
}

func sessionAndCredential(w http.ResponseWriter, r *http.Request) (models.Session, api.Credential, bool) {
	session, ok := sessioncontext.GetSessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return models.Session{}, nil, false
	}
	cred, ok := sessioncontext.GetCredentialFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return models.Session{}, nil, false
	}
	return session, cred, true
}
