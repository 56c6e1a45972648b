package login

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sessioncookie "useradmin/infrastructure/session"
	"useradmin/infrastructure/sqlite"
	"useradmin/models"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testSession() models.Session {
	s := models.Session{
		ID:             newSessionToken(),
		Username:       "jdoe",
		Email:          "jane@example.com",
		Roles:          []string{"user-admin"},
		AccessToken:    "access",
		RefreshToken:   "refresh",
		TokenExpiresAt: time.Now().Add(time.Minute),
		ExpiresAt:      sessioncookie.DefaultExpiry(),
	}
	s.EncodeRoles()
	return s
}

func TestSessionPersistLoadDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	session := testSession()

	if err := persistSession(ctx, db, session); err != nil {
		t.Fatalf("persist: %v", err)
	}

	loaded, err := LoadSessionByToken(ctx, db, session.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Username != "jdoe" || loaded.AccessToken != "access" {
		t.Fatalf("loaded = %+v", loaded)
	}
	if len(loaded.Roles) != 1 || loaded.Roles[0] != "user-admin" {
		t.Fatalf("roles not decoded: %v", loaded.Roles)
	}

	if err := DeleteSessionByToken(ctx, db, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := LoadSessionByToken(ctx, db, session.ID); err == nil {
		t.Fatalf("expected load to fail after delete")
	}
}

func TestExpiredSessionEvictedOnLoad(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	session := testSession()
	session.ExpiresAt = time.Now().Add(-time.Minute)

	if err := persistSession(ctx, db, session); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if _, err := LoadSessionByToken(ctx, db, session.ID); err == nil {
		t.Fatalf("expected expired session to be rejected")
	}
	// The row is gone, not just rejected.
	if _, err := LoadSessionByToken(ctx, db, session.ID); err == nil {
		t.Fatalf("expired session row survived eviction")
	}
}

func TestStoreSaveTokens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	session := testSession()
	if err := persistSession(ctx, db, session); err != nil {
		t.Fatalf("persist: %v", err)
	}

	newExpiry := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)
	if err := NewStore(db).SaveTokens(ctx, session.ID, "access-2", "refresh-2", newExpiry); err != nil {
		t.Fatalf("save tokens: %v", err)
	}

	loaded, err := LoadSessionByToken(ctx, db, session.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.AccessToken != "access-2" || loaded.RefreshToken != "refresh-2" {
		t.Fatalf("tokens not updated: %+v", loaded)
	}
	if !loaded.TokenExpiresAt.Equal(newExpiry) {
		t.Fatalf("token expiry = %v, want %v", loaded.TokenExpiresAt, newExpiry)
	}
}

func TestStateSignVerify(t *testing.T) {
	key, err := StateKey([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("state key: %v", err)
	}

	value := signState(key, "nonce-1")
	nonce, ok := verifyState(key, value)
	if !ok || nonce != "nonce-1" {
		t.Fatalf("verify = %q, %v", nonce, ok)
	}

	if _, ok := verifyState(key, "nonce-1.AAAA"); ok {
		t.Fatalf("tampered signature accepted")
	}
	if _, ok := verifyState(key, "no-dot"); ok {
		t.Fatalf("malformed value accepted")
	}

	otherKey, _ := StateKey([]byte("another-secret-another-secret-00"))
	if _, ok := verifyState(otherKey, value); ok {
		t.Fatalf("signature accepted under the wrong key")
	}
}

func TestStateKeyRejectsShortSecret(t *testing.T) {
	if _, err := StateKey([]byte("short")); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}
