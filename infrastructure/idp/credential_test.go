package idp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

type recordingStore struct {
	calls   int32
	access  string
	refresh string
	expiry  time.Time
}

func (s *recordingStore) SaveTokens(_ context.Context, _ string, accessToken, refreshToken string, expiresAt time.Time) error {
	atomic.AddInt32(&s.calls, 1)
	s.access = accessToken
	s.refresh = refreshToken
	s.expiry = expiresAt
	return nil
}

func newTestProvider(t *testing.T, tokenHandler http.HandlerFunc) *Provider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/protocol/openid-connect/token", tokenHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider, err := New(srv.URL, "console", "secret", "http://localhost/auth/callback")
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	return provider
}

func sessionWithExpiry(expiresAt time.Time) models.Session {
	return models.Session{
		ID:             "sess-1",
		AccessToken:    "cached-access",
		RefreshToken:   "cached-refresh",
		TokenExpiresAt: expiresAt,
	}
}

func TestTokenServedFromCacheWhileFresh(t *testing.T) {
	var hits int32
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	cred := NewCredential(provider, nil, sessionWithExpiry(time.Now().Add(time.Minute)))
	tok, err := cred.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "cached-access" {
		t.Fatalf("token = %q", tok)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("refresh endpoint hit while token still fresh")
	}
}

func TestTokenRefreshesWithinThreshold(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("refresh_token"); got != "cached-refresh" {
			t.Errorf("refresh_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":300}`))
	})

	store := &recordingStore{}
	// Inside the 5s window: a token expiring in 2s forces a refresh.
	cred := NewCredential(provider, store, sessionWithExpiry(time.Now().Add(2*time.Second)))

	tok, err := cred.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "new-access" {
		t.Fatalf("token = %q, want refreshed", tok)
	}
	if atomic.LoadInt32(&store.calls) != 1 {
		t.Fatalf("store calls = %d, want 1", store.calls)
	}
	if store.access != "new-access" || store.refresh != "new-refresh" {
		t.Fatalf("persisted tokens = %q / %q", store.access, store.refresh)
	}

	// The refreshed token is served from cache afterwards.
	tok, err = cred.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token: %v", err)
	}
	if tok != "new-access" {
		t.Fatalf("second token = %q", tok)
	}
	if atomic.LoadInt32(&store.calls) != 1 {
		t.Fatalf("unexpected second refresh")
	}
}

func TestFailedRefreshYieldsLoginRequired(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	cred := NewCredential(provider, nil, sessionWithExpiry(time.Now().Add(-time.Second)))
	if _, err := cred.Token(context.Background()); !errors.Is(err, api.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
}

func TestParseClaims(t *testing.T) {
	// Unsigned-alg token with preferred_username, email and realm roles.
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJwcmVmZXJyZWRfdXNlcm5hbWUiOiJqZG9lIiwiZW1haWwiOiJqYW5lQGV4YW1wbGUuY29tIiwicmVhbG1fYWNjZXNzIjp7InJvbGVzIjpbInVzZXItYWRtaW4iXX19."

	claims, err := ParseClaims(token)
	if err != nil {
		t.Fatalf("ParseClaims: %v", err)
	}
	if claims.PreferredUsername != "jdoe" || claims.Email != "jane@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
	if len(claims.RealmAccess.Roles) != 1 || claims.RealmAccess.Roles[0] != "user-admin" {
		t.Fatalf("roles = %v", claims.RealmAccess.Roles)
	}
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Fatalf("expected parse failure")
	}
}
