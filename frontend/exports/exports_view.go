package exports

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"useradmin/frontend/shared/html"
)

// ExportsPage renders the export landing page.
func ExportsPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="page"><h1>Exports</h1>`)

		if err := html.Flash(data.Status, data.ErrorMessage).Render(ctx, &b); err != nil {
			return err
		}

		b.WriteString(`<div class="card">`)
		if data.Total == 0 {
			b.WriteString(`<p>No result set loaded yet. Open the <a href="/console/users">user list</a> and apply your filters; exports always mirror that list.</p>`)
		} else {
			scope := "all users"
			if data.FilterActive {
				scope = "the current filter"
			}
			fmt.Fprintf(&b, `<p>The current result set holds <strong>%d</strong> users (%s).</p>`, data.Total, scope)
		}
		b.WriteString(`<div class="actions">`)
		b.WriteString(`<a class="btn btn-primary" href="/console/exports/users.csv">Download CSV</a>`)
		b.WriteString(`<a class="btn btn-primary" href="/console/exports/users.pdf">Download PDF directory</a>`)
		b.WriteString(`</div></div></main>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return html.Layout("Exports", body)
}
