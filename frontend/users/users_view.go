package users

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"useradmin/frontend/shared/html"
	"useradmin/models"
)

func esc(s string) string { return templ.EscapeString(s) }

// UsersListPage renders the listing: filter card, result table or cards,
// pagination controls and, when armed, the delete confirmation dialog.
func UsersListPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<main class="page">`)
		b.WriteString(`<h1>Users</h1>`)

		if err := html.Flash(data.Status, data.ErrorMessage).Render(ctx, &b); err != nil {
			return err
		}
		if data.RefWarning != "" {
			fmt.Fprintf(&b, `<div class="alert alert-warning">%s</div>`, esc(data.RefWarning))
		}
		if data.State.ErrorMessage != "" {
			fmt.Fprintf(&b, `<div class="alert alert-error">%s</div>`, esc(data.State.ErrorMessage))
		}

		writeFilterCard(&b, data)

		if data.State.Loading {
			b.WriteString(`<div class="loading">Loading users…</div>`)
		}

		if data.State.ViewMode == "cards" {
			writeUserCards(&b, data)
		} else {
			writeUserTable(&b, data)
		}

		writePagination(&b, data)

		if data.DeleteTarget != "" {
			writeDeleteDialog(&b, data)
		}

		b.WriteString(`</main>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return html.Layout("Users", body)
}

func writeFilterCard(b *strings.Builder, data PageData) {
	b.WriteString(`<div class="card filter-card">`)

	fmt.Fprintf(b, `<form method="post" action="/console/users/search" class="filter-form">%s`+
		`<input type="text" name="term" value="%s" placeholder="Search username or last name" autofocus>`+
		`<button type="submit" class="btn">Search</button></form>`,
		csrfInput(data.CSRFToken), esc(data.State.Filter.Term))

	fmt.Fprintf(b, `<form method="post" action="/console/users/filter/organisation" class="filter-form">%s`+
		`<select name="org_uid" onchange="this.form.submit()"><option value="">All organisations</option>`,
		csrfInput(data.CSRFToken))
	for _, o := range data.Organisations {
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, esc(o.ID), selectedAttr(o.ID == data.State.Filter.OrgUID), esc(o.Label))
	}
	b.WriteString(`</select></form>`)

	fmt.Fprintf(b, `<form method="post" action="/console/users/filter/role" class="filter-form">%s`+
		`<select name="role_id" onchange="this.form.submit()"><option value="">All roles</option>`,
		csrfInput(data.CSRFToken))
	for _, o := range data.Roles {
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, esc(o.ID), selectedAttr(o.ID == data.State.Filter.RoleID), esc(o.Label))
	}
	b.WriteString(`</select></form>`)

	fmt.Fprintf(b, `<form method="post" action="/console/users/view-mode" class="filter-form">%s`+
		`<input type="hidden" name="mode" value="%s"><button type="submit" class="btn-ghost">Switch to %s view</button></form>`,
		csrfInput(data.CSRFToken), otherViewMode(data.State.ViewMode), otherViewMode(data.State.ViewMode))

	if data.CanEdit {
		b.WriteString(`<a class="btn btn-primary" href="/console/userform/new">New user</a>`)
	}
	b.WriteString(`</div>`)
}

func writeUserTable(b *strings.Builder, data PageData) {
	b.WriteString(`<table class="data-table"><thead><tr><th>Username</th><th>Name</th><th>Email</th><th>Organisations</th><th></th></tr></thead><tbody>`)
	if len(data.State.PageUsers) == 0 {
		b.WriteString(`<tr><td colspan="5" class="empty">No users found</td></tr>`)
	}
	for _, u := range data.State.PageUsers {
		fmt.Fprintf(b, `<tr><td>%s</td><td>%s %s</td><td>%s</td><td>%s</td><td class="actions">`,
			esc(u.Username), esc(u.FirstName), esc(u.LastName), esc(u.Mail), esc(membershipSummary(u)))
		writeRowActions(b, data, u)
		b.WriteString(`</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)
}

func writeUserCards(b *strings.Builder, data PageData) {
	b.WriteString(`<div class="card-grid">`)
	if len(data.State.PageUsers) == 0 {
		b.WriteString(`<div class="empty">No users found</div>`)
	}
	for _, u := range data.State.PageUsers {
		fmt.Fprintf(b, `<div class="card user-card"><h3>%s %s</h3><p>@%s</p><p>%s</p><p>%s</p><div class="actions">`,
			esc(u.FirstName), esc(u.LastName), esc(u.Username), esc(u.Mail), esc(membershipSummary(u)))
		writeRowActions(b, data, u)
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div>`)
}

func writeRowActions(b *strings.Builder, data PageData, u models.User) {
	fmt.Fprintf(b, `<a class="btn-ghost" href="/console/users/%s">View</a>`, esc(u.UserUID))
	if data.CanEdit {
		fmt.Fprintf(b, `<a class="btn-ghost" href="/console/userform/%s/edit">Edit</a>`, esc(u.UserUID))
		fmt.Fprintf(b, `<a class="btn-ghost btn-danger" href="/console/users?confirm_delete=%s">Delete</a>`, esc(u.UserUID))
	}
}

func writePagination(b *strings.Builder, data PageData) {
	st := data.State
	fmt.Fprintf(b, `<div class="pagination"><span>Page %d of %d (%d users)</span>`, st.Page+1, st.PageCount, st.Total)

	fmt.Fprintf(b, `<form method="post" action="/console/users/page" class="inline-form">%s`+
		`<input type="hidden" name="page" value="%d"><button type="submit" class="btn-ghost"%s>Prev</button></form>`,
		csrfInput(data.CSRFToken), st.Page-1, disabledAttr(st.Page <= 0))
	fmt.Fprintf(b, `<form method="post" action="/console/users/page" class="inline-form">%s`+
		`<input type="hidden" name="page" value="%d"><button type="submit" class="btn-ghost"%s>Next</button></form>`,
		csrfInput(data.CSRFToken), st.Page+1, disabledAttr(st.Page >= st.PageCount-1))

	fmt.Fprintf(b, `<form method="post" action="/console/users/page-size" class="inline-form">%s<select name="size" onchange="this.form.submit()">`,
		csrfInput(data.CSRFToken))
	for _, size := range []int{5, 10, 25, 50} {
		fmt.Fprintf(b, `<option value="%d"%s>%d per page</option>`, size, selectedAttr(size == st.PageSize), size)
	}
	b.WriteString(`</select></form></div>`)
}

func writeDeleteDialog(b *strings.Builder, data PageData) {
	fmt.Fprintf(b, `<dialog open class="modal"><div class="modal-box"><h3>Delete user</h3>`+
		`<p>Delete user %s? The record is deactivated on the server.</p>`, esc(data.DeleteTarget))
	if data.DeleteError != "" {
		fmt.Fprintf(b, `<div class="alert alert-error">%s</div>`, esc(data.DeleteError))
	}
	fmt.Fprintf(b, `<div class="modal-action">`+
		`<form method="post" action="/console/users/%s/delete">%s<button type="submit" class="btn btn-danger">Delete</button></form>`+
		`<a class="btn" href="/console/users">Cancel</a></div></div></dialog>`,
		esc(data.DeleteTarget), csrfInput(data.CSRFToken))
}

// UserDetailPage renders the read-only record view.
func UserDetailPage(data DetailData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		u := data.User

		b.WriteString(`<main class="page">`)
		fmt.Fprintf(&b, `<h1>%s %s</h1><p class="subtitle">@%s</p>`, esc(u.FirstName), esc(u.LastName), esc(u.Username))
		if u.Deleted {
			b.WriteString(`<span class="badge badge-error">Deleted</span>`)
		} else {
			b.WriteString(`<span class="badge badge-success">Active</span>`)
		}

		b.WriteString(`<div class="card"><h2>Contact</h2><dl>`)
		fmt.Fprintf(&b, `<dt>Email</dt><dd>%s</dd>`, esc(u.Mail))
		phone := u.Phone
		if phone == "" {
			phone = "—"
		}
		fmt.Fprintf(&b, `<dt>Phone</dt><dd>%s</dd>`, esc(phone))
		b.WriteString(`</dl></div>`)

		b.WriteString(`<div class="card"><h2>Organisations &amp; roles</h2>`)
		active := u.ActiveMemberships()
		if len(active) == 0 {
			b.WriteString(`<p class="empty">No active memberships</p>`)
		}
		for _, m := range active {
			fmt.Fprintf(&b, `<div class="membership"><h3>%s</h3><div class="chips">`, esc(m.OrgName))
			for _, role := range m.Roles {
				label := role.RoleName
				if label == "" {
					label = role.RoleID
				}
				fmt.Fprintf(&b, `<span class="chip">%s</span>`, esc(label))
			}
			b.WriteString(`</div></div>`)
		}
		b.WriteString(`</div>`)

		b.WriteString(`<div class="actions">`)
		if data.CanEdit {
			fmt.Fprintf(&b, `<a class="btn btn-primary" href="/console/userform/%s/edit">Edit</a>`, esc(u.UserUID))
		}
		b.WriteString(`<a class="btn" href="/console/users">Back to list</a></div></main>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
	return html.Layout("User details", body)
}

func membershipSummary(u models.User) string {
	names := make([]string, 0, len(u.Organisations))
	for _, m := range u.ActiveMemberships() {
		names = append(names, m.OrgName)
	}
	return strings.Join(names, ", ")
}

func csrfInput(token string) string {
	return fmt.Sprintf(`<input type="hidden" name="_csrf" value="%s">`, esc(token))
}

func selectedAttr(selected bool) string {
	if selected {
		return ` selected`
	}
	return ""
}

func disabledAttr(disabled bool) string {
	if disabled {
		return ` disabled`
	}
	return ""
}

func otherViewMode(mode string) string {
	if mode == "cards" {
		return "table"
	}
	return "cards"
}
