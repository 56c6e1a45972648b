package html

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	sessioncontext "useradmin/frontend/shared/context"
	"useradmin/frontend/shared/nav"
)

// Layout wraps a page body in the shared document shell. The top navigation
// is rendered whenever the request carries a session.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!doctype html><html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><link rel="stylesheet" href="/assets/app.css"></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if session, ok := sessioncontext.GetSessionFromContext(ctx); ok {
			data := nav.BuildTopNavData(session, sessioncontext.GetCSRFTokenFromContext(ctx))
			if err := nav.TopNav(data).Render(ctx, w); err != nil {
				return err
			}
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// Flash renders the status/error banner pair used across pages.
func Flash(status, errorMessage string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if status != "" {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-success">%s</div>`, templ.EscapeString(status)); err != nil {
				return err
			}
		}
		if errorMessage != "" {
			if _, err := fmt.Fprintf(w, `<div class="alert alert-error">%s</div>`, templ.EscapeString(errorMessage)); err != nil {
				return err
			}
		}
		return nil
	})
}
