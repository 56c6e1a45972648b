package login

import (
	"net/http"

	"useradmin/infrastructure/idp"
)

// StartLoginHandler begins the authorization-code flow: a random nonce goes
// to the provider as state and, HMAC-signed, into a short-lived cookie for
// the callback to compare against.
func StartLoginHandler(provider *idp.Provider, stateKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nonce := newSessionToken()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    signState(stateKey, nonce),
			Path:     "/",
			MaxAge:   300,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, provider.AuthCodeURL(nonce), http.StatusSeeOther)
	}
}
