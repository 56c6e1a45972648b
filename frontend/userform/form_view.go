package userform

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"useradmin/frontend/shared/html"
	"useradmin/models"
)

// FormPageData is everything the stepper page renders.
type FormPageData struct {
	State     State
	CSRFToken string
}

func esc(s string) string { return templ.EscapeString(s) }

// FormPage renders the four-step workflow: stepper header, the active
// step's card, and the navigation row.
func FormPage(data FormPageData) templ.Component {
	title := "New user"
	if data.State.Editing {
		title = "Edit user"
	}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		st := data.State

		b.WriteString(`<main class="page">`)
		fmt.Fprintf(&b, `<h1>%s</h1>`, esc(title))

		writeStepper(&b, st)

		if st.ErrorMessage != "" {
			fmt.Fprintf(&b, `<div class="alert alert-error">%s</div>`, esc(st.ErrorMessage))
		}
		if st.RefWarning != "" {
			fmt.Fprintf(&b, `<div class="alert alert-warning">%s</div>`, esc(st.RefWarning))
		}

		switch st.Step {
		case StepSelectOrganisations:
			writeOrganisationStep(&b, data)
		case StepAssignRoles:
			writeRoleStep(&b, data)
		case StepPersonalData:
			writePersonalStep(&b, data)
		case StepReview:
			writeReviewStep(&b, data)
		}

		writeNavigation(&b, data)

		b.WriteString(`</main>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return html.Layout(title, body)
}

func writeStepper(b *strings.Builder, st State) {
	b.WriteString(`<ol class="stepper">`)
	for _, step := range Steps() {
		class := "step"
		switch {
		case step == st.Step:
			class = "step step-active"
		case step < st.Step:
			class = "step step-done"
		}
		fmt.Fprintf(b, `<li class="%s">%s</li>`, class, esc(step.String()))
	}
	b.WriteString(`</ol>`)
}

func writeOrganisationStep(b *strings.Builder, data FormPageData) {
	st := data.State
	b.WriteString(`<div class="card"><h2>Select organisations</h2>`)
	if st.RefLoading {
		b.WriteString(`<div class="loading">Loading organisations…</div></div>`)
		return
	}
	if len(st.Organisations) == 0 {
		b.WriteString(`<p class="empty">No organisations available</p>`)
	}
	b.WriteString(`<div class="toggle-grid">`)
	for _, org := range st.Organisations {
		selected := containsOption(st.Selected, org.ID)
		class := "btn-toggle"
		if selected {
			class = "btn-toggle btn-toggle-on"
		}
		fmt.Fprintf(b, `<form method="post" action="/console/userform/organisation" class="inline-form">%s`+
			`<input type="hidden" name="org_uid" value="%s"><button type="submit" class="%s">%s</button></form>`,
			csrfInput(data.CSRFToken), esc(org.ID), class, esc(org.Label))
	}
	b.WriteString(`</div></div>`)
}

func writeRoleStep(b *strings.Builder, data FormPageData) {
	st := data.State
	b.WriteString(`<div class="card"><h2>Assign roles</h2>`)
	for _, org := range st.Selected {
		fmt.Fprintf(b, `<div class="membership"><h3>%s</h3><div class="toggle-grid">`, esc(org.Label))
		assigned := st.AssignedRoles[org.ID]
		for _, role := range st.Roles {
			class := "btn-toggle"
			if containsID(assigned, role.ID) {
				class = "btn-toggle btn-toggle-on"
			}
			fmt.Fprintf(b, `<form method="post" action="/console/userform/role" class="inline-form">%s`+
				`<input type="hidden" name="org_uid" value="%s"><input type="hidden" name="role_id" value="%s">`+
				`<button type="submit" class="%s">%s</button></form>`,
				csrfInput(data.CSRFToken), esc(org.ID), esc(role.ID), class, esc(role.Label))
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div>`)
}

func writePersonalStep(b *strings.Builder, data FormPageData) {
	st := data.State
	b.WriteString(`<div class="card"><h2>Personal data</h2><div class="field-grid">`)
	writeField(b, st, "username", "Username", st.Personal.Username, st.Editing)
	writeField(b, st, "firstName", "First name", st.Personal.FirstName, false)
	writeField(b, st, "lastName", "Last name", st.Personal.LastName, false)
	writeField(b, st, "mail", "Email", st.Personal.Mail, false)
	writeField(b, st, "phone", "Phone (optional)", st.Personal.Phone, false)
	b.WriteString(`</div></div>`)
}

// writeField emits one labelled input inside the shared personal-data form.
// The inputs live in the navigation form so Next/Back carry the typed
// values; here we only render markup, the posting form wraps the whole
// step.
func writeField(b *strings.Builder, st State, name, label, value string, readonly bool) {
	fieldErr := st.FieldErrors[name]
	class := "field"
	if fieldErr != "" {
		class = "field field-error"
	}
	ro := ""
	if readonly {
		ro = ` readonly`
	}
	fmt.Fprintf(b, `<label class="%s">%s<input type="text" name="%s" value="%s" form="step-form"%s>`,
		class, esc(label), esc(name), esc(value), ro)
	if fieldErr != "" {
		fmt.Fprintf(b, `<span class="field-message">%s</span>`, esc(fieldErr))
	}
	b.WriteString(`</label>`)
}

func writeReviewStep(b *strings.Builder, data FormPageData) {
	st := data.State
	b.WriteString(`<div class="card"><h2>Review</h2><dl>`)
	fmt.Fprintf(b, `<dt>Username</dt><dd>%s</dd>`, esc(st.Personal.Username))
	fmt.Fprintf(b, `<dt>Name</dt><dd>%s %s</dd>`, esc(st.Personal.FirstName), esc(st.Personal.LastName))
	fmt.Fprintf(b, `<dt>Email</dt><dd>%s</dd>`, esc(st.Personal.Mail))
	phone := st.Personal.Phone
	if phone == "" {
		phone = "—"
	}
	fmt.Fprintf(b, `<dt>Phone</dt><dd>%s</dd>`, esc(phone))
	b.WriteString(`</dl>`)

	b.WriteString(`<h3>Organisations &amp; roles</h3>`)
	for _, org := range st.Selected {
		fmt.Fprintf(b, `<div class="membership"><h4>%s</h4><div class="chips">`, esc(org.Label))
		for _, roleID := range st.AssignedRoles[org.ID] {
			fmt.Fprintf(b, `<span class="chip">%s</span>`, esc(roleLabel(st.Roles, roleID)))
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div>`)
}

func writeNavigation(b *strings.Builder, data FormPageData) {
	st := data.State
	b.WriteString(`<div class="form-nav">`)

	if st.Step > StepSelectOrganisations {
		fmt.Fprintf(b, `<form id="back-form" method="post" action="/console/userform/back" class="inline-form">%s`+
			`<button type="submit" class="btn">Back</button></form>`, csrfInput(data.CSRFToken))
	}

	if st.Step < StepReview {
		fmt.Fprintf(b, `<form id="step-form" method="post" action="/console/userform/next" class="inline-form">%s`+
			`<button type="submit" class="btn btn-primary">Next</button></form>`, csrfInput(data.CSRFToken))
	} else {
		label := "Create user"
		if st.Editing {
			label = "Save changes"
		}
		fmt.Fprintf(b, `<form method="post" action="/console/userform/submit" class="inline-form">%s`+
			`<button type="submit" class="btn btn-primary">%s</button></form>`, csrfInput(data.CSRFToken), esc(label))
	}

	fmt.Fprintf(b, `<form method="post" action="/console/userform/cancel" class="inline-form">%s`+
		`<button type="submit" class="btn-ghost">Cancel</button></form>`, csrfInput(data.CSRFToken))
	b.WriteString(`</div>`)
}

func roleLabel(roles []models.Option, id string) string {
	for _, r := range roles {
		if r.ID == id {
			return r.Label
		}
	}
	return id
}

func containsOption(opts []models.Option, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func csrfInput(token string) string {
	return fmt.Sprintf(`<input type="hidden" name="_csrf" value="%s">`, esc(token))
}
