package exports

import (
	"log/slog"
	"net/http"
	"time"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/frontend/users"
)

// ExportsPageQueryHandler renders the export landing page. The downloads
// operate on the listing controller's current snapshot; the page says what
// that snapshot holds so nobody exports an empty or stale set by surprise.
func ExportsPageQueryHandler(registry *users.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := PageData{
			Status:       r.URL.Query().Get("status"),
			ErrorMessage: r.URL.Query().Get("error"),
		}
		if ctrl, ok := registry.Peek(session.ID); ok {
			state := ctrl.Snapshot()
			data.Total = state.Total
			data.FilterActive = state.Filter.Term != "" || state.Filter.OrgUID != "" || state.Filter.RoleID != ""
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ExportsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render exports page", http.StatusInternalServerError)
			return
		}
	}
}

// UsersCSVHandler streams the current result set as CSV. It never fetches;
// an empty snapshot means the operator has not visited the listing yet.
func UsersCSVHandler(registry *users.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctrl, ok := registry.Peek(session.ID)
		if !ok {
			http.Error(w, "no result set loaded; open the user list first", http.StatusConflict)
			return
		}
		state := ctrl.Snapshot()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=users.csv")
		if err := writeUsersCSV(w, state.Users); err != nil {
			slog.Error("exports: write users csv", slog.Any("err", err))
		}
	}
}

// UsersPDFHandler renders the current result set as a printable directory.
func UsersPDFHandler(registry *users.Registry, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctrl, ok := registry.Peek(session.ID)
		if !ok {
			http.Error(w, "no result set loaded; open the user list first", http.StatusConflict)
			return
		}
		state := ctrl.Snapshot()
		if len(state.Users) == 0 {
			http.Error(w, "nothing to export", http.StatusConflict)
			return
		}

		pdfBytes, err := renderUserDirectoryPDF(state.Users, publicBaseURL, time.Now())
		if err != nil {
			slog.Error("exports: render users pdf", slog.Any("err", err))
			http.Error(w, "failed to render pdf", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", "attachment; filename=users.pdf")
		_, _ = w.Write(pdfBytes)
	}
}
