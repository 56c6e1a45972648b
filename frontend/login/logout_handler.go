package login

import (
	"net/http"

	"useradmin/frontend/userform"
	"useradmin/frontend/users"
	"useradmin/infrastructure/cache"
	sessioncookie "useradmin/infrastructure/session"
	"useradmin/infrastructure/sqlite"
)

// LogoutHandler removes every per-session artefact: the stored session, the
// caches, the listing controller and any open form. Their timers and
// in-flight fetches die with them.
func LogoutHandler(db *sqlite.DB, sessionCache *cache.UserSessionCache, credentialCache *cache.CredentialCache, listing *users.Registry, forms *userform.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessioncookie.CookieName)
		if err == nil && cookie.Value != "" {
			sessionCache.DeleteSessionBySessionToken(cookie.Value)
			credentialCache.Delete(cookie.Value)
			listing.Drop(cookie.Value)
			forms.Drop(cookie.Value)
			_ = DeleteSessionByToken(r.Context(), db, cookie.Value)
		}
		http.SetCookie(w, sessioncookie.SessionCookie("", -1))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}
