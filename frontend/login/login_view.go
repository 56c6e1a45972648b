package login

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"useradmin/frontend/shared/html"
)

// GetLoginScreen renders the sign-in card. All authentication happens at
// the identity provider; the console only starts the flow.
func GetLoginScreen(errorMessage string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="page login-page"><div class="card login-card">`)
		b.WriteString(`<h1>User Administration</h1>`)
		if errorMessage != "" {
			fmt.Fprintf(&b, `<div class="alert alert-error">%s</div>`, templ.EscapeString(errorMessage))
		}
		b.WriteString(`<p>Sign in with your organisation account to manage users, memberships and roles.</p>`)
		b.WriteString(`<a class="btn btn-primary" href="/auth/start">Sign in</a>`)
		b.WriteString(`</div></main>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return html.Layout("Sign in", body)
}
