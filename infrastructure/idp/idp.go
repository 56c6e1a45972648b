package idp

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// Provider wraps the external OpenID Connect identity provider. The console
// only drives the authorization-code flow and the refresh grant; everything
// else about identity is the provider's business.
type Provider struct {
	issuer string
	conf   *oauth2.Config
}

// New builds a provider from its issuer URL. Endpoint paths follow the
// Keycloak realm layout.
func New(issuer, clientID, clientSecret, redirectURL string) (*Provider, error) {
	issuer = strings.TrimRight(issuer, "/")
	if issuer == "" || clientID == "" || redirectURL == "" {
		return nil, fmt.Errorf("issuer, client id and redirect url are required")
	}
	return &Provider{
		issuer: issuer,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  issuer + "/protocol/openid-connect/auth",
				TokenURL: issuer + "/protocol/openid-connect/token",
			},
		},
	}, nil
}

// AuthCodeURL returns the provider login URL carrying the given state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token set.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.conf.Exchange(ctx, code)
}

// Refresh runs the refresh grant for a held refresh token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := p.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}

// DiscoveryURL is the provider's OIDC discovery document.
func (p *Provider) DiscoveryURL() string {
	return p.issuer + "/.well-known/openid-configuration"
}
