package nav

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"useradmin/infrastructure/rbac"
	"useradmin/models"
)

// TopNavData is shared with page renderers.
type TopNavData struct {
	Username  string
	IsAdmin   bool
	CSRFToken string
}

func BuildTopNavData(session models.Session, csrfToken string) TopNavData {
	data := TopNavData{Username: session.Username, CSRFToken: csrfToken}
	for _, role := range session.Roles {
		if role == rbac.RoleAdmin {
			data.IsAdmin = true
		}
	}
	return data
}

// TopNav renders the console navigation bar.
func TopNav(data TopNavData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<nav class="topnav"><div class="topnav-brand"><a href="/console/users">User Administration</a></div>`+
				`<div class="topnav-links"><a href="/console/users">Users</a><a href="/console/exports">Exports</a><a href="/console/help">Help</a></div>`+
				`<div class="topnav-user"><span>%s</span>`+
				`<form method="post" action="/logout" class="inline-form"><input type="hidden" name="_csrf" value="%s"><button type="submit" class="btn-link">Sign out</button></form></div></nav>`,
			templ.EscapeString(data.Username), templ.EscapeString(data.CSRFToken))
		return err
	})
}
