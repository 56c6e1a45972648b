package idp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

// RefreshThreshold is how close to expiry a token may get before every
// outbound call forces a refresh first.
const RefreshThreshold = 5 * time.Second

// TokenStore persists refreshed tokens back onto the session record.
type TokenStore interface {
	SaveTokens(ctx context.Context, sessionID, accessToken, refreshToken string, expiresAt time.Time) error
}

// Credential is one session's bearer credential. It satisfies the API
// client's credential interface: reads are cheap, refresh is serialized,
// and refreshed tokens are written back through the store.
type Credential struct {
	provider *Provider
	store    TokenStore

	mu        sync.Mutex
	sessionID string
	access    string
	refresh   string
	expiresAt time.Time
}

// NewCredential seeds a credential from a loaded session.
func NewCredential(p *Provider, store TokenStore, sess models.Session) *Credential {
	return &Credential{
		provider:  p,
		store:     store,
		sessionID: sess.ID,
		access:    sess.AccessToken,
		refresh:   sess.RefreshToken,
		expiresAt: sess.TokenExpiresAt,
	}
}

// Token returns a bearer token, refreshing through the provider when the
// held one is within RefreshThreshold of expiry. A failed refresh means the
// session is dead and the caller has to go back through login.
func (c *Credential) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Until(c.expiresAt) > RefreshThreshold {
		return c.access, nil
	}

	tok, err := c.provider.Refresh(ctx, c.refresh)
	if err != nil {
		slog.Warn("token refresh failed", slog.String("session_id", c.sessionID), slog.Any("err", err))
		return "", fmt.Errorf("token refresh: %w", api.ErrLoginRequired)
	}

	c.access = tok.AccessToken
	c.expiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		c.refresh = tok.RefreshToken
	}

	if c.store != nil {
		if err := c.store.SaveTokens(ctx, c.sessionID, c.access, c.refresh, c.expiresAt); err != nil {
			// Keep serving the in-memory tokens; persistence catches up on the
			// next refresh.
			slog.Error("persist refreshed tokens failed", slog.String("session_id", c.sessionID), slog.Any("err", err))
		}
	}
	return c.access, nil
}
