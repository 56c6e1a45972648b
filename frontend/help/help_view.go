package help

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"useradmin/frontend/shared/html"
)

// PageData flags which help sections apply to the signed-in operator.
type PageData struct {
	IsAdmin  bool
	IsViewer bool
}

// HelpPage renders usage notes for the console.
func HelpPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="page"><h1>Help</h1>`)

		b.WriteString(`<div class="card"><h2>Finding users</h2>` +
			`<p>The search box matches usernames and last names as you type; results load after a short pause. ` +
			`The organisation and role filters narrow the list immediately. Paging happens over the loaded result set, so ` +
			`moving between pages never re-queries the server.</p></div>`)

		if data.IsAdmin {
			b.WriteString(`<div class="card"><h2>Creating and editing users</h2>` +
				`<p>The form walks through four steps: pick organisations, assign at least one role per organisation, ` +
				`fill in personal data, then review and save. You can move back at any time without losing input. ` +
				`When editing, only active memberships are preloaded.</p></div>`)
			b.WriteString(`<div class="card"><h2>Deleting users</h2>` +
				`<p>Delete always asks for confirmation first. Deleted users are deactivated on the server and vanish ` +
				`from the list without a reload.</p></div>`)
		}
		if data.IsViewer && !data.IsAdmin {
			b.WriteString(`<div class="card"><h2>Your access</h2>` +
				`<p>Your account can browse users, open details and download exports, but not change anything.</p></div>`)
		}

		b.WriteString(`<div class="card"><h2>Exports</h2>` +
			`<p>CSV and PDF downloads mirror the user list exactly as it is filtered right now.</p></div>`)

		b.WriteString(`<div class="card"><h2>Session</h2>` +
			`<p>Sessions last 12 hours. When your sign-in expires you are sent back to the login screen; ` +
			`any form you had open is discarded.</p></div>`)

		b.WriteString(`</main>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return html.Layout("Help", body)
}
