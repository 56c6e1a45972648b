package login

import (
	"log/slog"
	"net/http"
	"net/url"

	"useradmin/infrastructure/cache"
	"useradmin/infrastructure/idp"
	sessioncookie "useradmin/infrastructure/session"
	"useradmin/infrastructure/sqlite"
	"useradmin/models"
)

// CallbackHandler finishes the authorization-code flow: state check, code
// exchange, session creation. Every failure bounces back to the login
// screen with a displayable message; no half-created sessions survive.
func CallbackHandler(provider *idp.Provider, stateKey []byte, db *sqlite.DB, sessionCache *cache.UserSessionCache, credentialCache *cache.CredentialCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(msg string) {
			http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
		}

		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")
		if state == "" || code == "" {
			fail("sign-in was cancelled or rejected")
			return
		}

		cookie, err := r.Cookie(stateCookieName)
		if err != nil {
			fail("sign-in session expired, try again")
			return
		}
		nonce, ok := verifyState(stateKey, cookie.Value)
		if !ok || nonce != state {
			slog.Warn("login: state mismatch on callback")
			fail("sign-in could not be verified, try again")
			return
		}
		// One-shot cookie; a replayed callback fails the lookup above.
		http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})

		tok, err := provider.Exchange(r.Context(), code)
		if err != nil {
			slog.Error("login: code exchange failed", slog.Any("err", err))
			fail("identity provider rejected the sign-in")
			return
		}

		claims, err := idp.ParseClaims(tok.AccessToken)
		if err != nil {
			slog.Error("login: unreadable access token", slog.Any("err", err))
			fail("identity provider returned an unusable token")
			return
		}
		if claims.PreferredUsername == "" {
			fail("identity provider returned no username")
			return
		}

		session := models.Session{
			ID:             newSessionToken(),
			Username:       claims.PreferredUsername,
			Email:          claims.Email,
			Roles:          claims.RealmAccess.Roles,
			AccessToken:    tok.AccessToken,
			RefreshToken:   tok.RefreshToken,
			TokenExpiresAt: tok.Expiry,
			ExpiresAt:      sessioncookie.DefaultExpiry(),
		}
		session.EncodeRoles()

		if err := persistSession(r.Context(), db, session); err != nil {
			slog.Error("login: persist session failed", slog.Any("err", err))
			fail("failed to create session")
			return
		}

		sessionCache.AddSession(session)
		credentialCache.Add(session.ID, idp.NewCredential(provider, NewStore(db), session))

		slog.Info("login: session created", slog.String("username", session.Username))
		http.SetCookie(w, sessioncookie.SessionCookie(session.ID, 12*60*60))
		http.Redirect(w, r, "/console/users", http.StatusSeeOther)
	}
}
