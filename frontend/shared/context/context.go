package context

import (
	"context"

	"useradmin/infrastructure/idp"
	"useradmin/models"
)

type sessionKey struct{}
type credentialKey struct{}

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

func NewContextWithCredential(ctx context.Context, cred *idp.Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

func GetCredentialFromContext(ctx context.Context) (*idp.Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(*idp.Credential)
	return c, ok
}

type csrfTokenKey struct{}

func NewContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

func GetCSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey{}).(string)
	return token
}
