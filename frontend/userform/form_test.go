package userform

import (
	"context"
	"errors"
	"testing"
	"time"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

type fakeBackend struct {
	orgs    []models.Option
	roles   []models.Option
	refErr  error
	saveErr error

	created []models.UserDraft
	updated []models.UserDraft
}

func (f *fakeBackend) ListOrganisations(_ context.Context, _ api.Credential) ([]models.Option, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.orgs, nil
}

func (f *fakeBackend) ListRoles(_ context.Context, _ api.Credential) ([]models.Option, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	return f.roles, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, _ api.Credential, draft models.UserDraft) (models.User, error) {
	if f.saveErr != nil {
		return models.User{}, f.saveErr
	}
	f.created = append(f.created, draft)
	return models.User{UserUID: "created-uid", FirstName: draft.FirstName}, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, _ api.Credential, draft models.UserDraft) (models.User, error) {
	if f.saveErr != nil {
		return models.User{}, f.saveErr
	}
	f.updated = append(f.updated, draft)
	return models.User{UserUID: draft.UserUID, FirstName: draft.FirstName}, nil
}

type staticCred struct{}

func (staticCred) Token(context.Context) (string, error) { return "token", nil }

func newBackend() *fakeBackend {
	return &fakeBackend{
		orgs: []models.Option{
			{ID: "org-1", Label: "Org One"},
			{ID: "org-2", Label: "Org Two"},
		},
		roles: []models.Option{
			{ID: "role-1", Label: "Admin"},
			{ID: "role-2", Label: "Viewer"},
		},
	}
}

func openForm(t *testing.T, backend *fakeBackend) *Form {
	t.Helper()
	form := New(backend, staticCred{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	form.WaitReady(ctx)
	return form
}

func fillPersonal(form *Form) {
	form.SetPersonalField("username", "jdoe")
	form.SetPersonalField("firstName", "Jane")
	form.SetPersonalField("lastName", "Doe")
	form.SetPersonalField("mail", "jane@example.com")
}

func TestNextBlockedWithoutOrganisation(t *testing.T) {
	form := openForm(t, newBackend())

	if form.Next() {
		t.Fatalf("expected gate to block with no organisation selected")
	}
	st := form.Snapshot()
	if st.Step != StepSelectOrganisations {
		t.Fatalf("step = %v, want %v", st.Step, StepSelectOrganisations)
	}
	if st.ErrorMessage == "" {
		t.Fatalf("expected a gate message")
	}

	form.ToggleOrganisation("org-1")
	if !form.Next() {
		t.Fatalf("expected gate to pass with one organisation selected")
	}
}

func TestRoleGateRequiresRolePerSelectedOrganisation(t *testing.T) {
	form := openForm(t, newBackend())
	form.ToggleOrganisation("org-1")
	form.ToggleOrganisation("org-2")
	form.Next()

	form.ToggleRole("org-1", "role-1")
	if form.Next() {
		t.Fatalf("expected gate to block while org-2 has no role")
	}

	form.ToggleRole("org-2", "role-2")
	if !form.Next() {
		t.Fatalf("expected gate to pass once every organisation has a role")
	}
}

func TestDeselectingOrganisationRemovesItsRoles(t *testing.T) {
	form := openForm(t, newBackend())
	form.ToggleOrganisation("org-1")
	form.ToggleRole("org-1", "role-1")
	form.ToggleRole("org-1", "role-2")

	form.ToggleOrganisation("org-1")

	st := form.Snapshot()
	if len(st.Selected) != 0 {
		t.Fatalf("selected = %v, want empty", st.Selected)
	}
	if _, ok := st.AssignedRoles["org-1"]; ok {
		t.Fatalf("role assignments for org-1 survived deselection")
	}

	// Re-selecting starts clean.
	form.ToggleOrganisation("org-1")
	if got := form.Snapshot().AssignedRoles["org-1"]; len(got) != 0 {
		t.Fatalf("re-selected organisation kept roles %v", got)
	}
}

func TestRoleToggleIgnoredForUnselectedOrganisation(t *testing.T) {
	form := openForm(t, newBackend())
	form.ToggleRole("org-1", "role-1")
	if got := form.Snapshot().AssignedRoles["org-1"]; len(got) != 0 {
		t.Fatalf("role assigned to unselected organisation: %v", got)
	}
}

func TestPersonalDataValidation(t *testing.T) {
	form := openForm(t, newBackend())
	form.ToggleOrganisation("org-1")
	form.Next()
	form.ToggleRole("org-1", "role-1")
	form.Next()

	form.SetPersonalField("username", "jdoe")
	form.SetPersonalField("firstName", "Jane")
	form.SetPersonalField("lastName", "Doe")
	form.SetPersonalField("mail", "not-an-email")

	if form.Next() {
		t.Fatalf("expected gate to block on invalid email")
	}
	st := form.Snapshot()
	if st.FieldErrors["mail"] != "invalid email address" {
		t.Fatalf("mail error = %q", st.FieldErrors["mail"])
	}
	for _, field := range []string{"username", "firstName", "lastName"} {
		if msg, ok := st.FieldErrors[field]; ok {
			t.Fatalf("unexpected error on %s: %q", field, msg)
		}
	}

	// Editing the field clears only its own error.
	form.SetPersonalField("mail", "jane@example.com")
	if msg, ok := form.Snapshot().FieldErrors["mail"]; ok {
		t.Fatalf("mail error not cleared on edit: %q", msg)
	}
	if !form.Next() {
		t.Fatalf("expected gate to pass with a valid email")
	}
}

func TestSubmitOnlyFromReview(t *testing.T) {
	form := openForm(t, newBackend())
	if _, err := form.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit to fail outside the review step")
	}
}

func TestSubmitBuildsOrderedCreatePayload(t *testing.T) {
	backend := newBackend()
	form := openForm(t, backend)

	form.ToggleOrganisation("org-2")
	form.ToggleOrganisation("org-1")
	form.Next()
	form.ToggleRole("org-2", "role-2")
	form.ToggleRole("org-2", "role-1")
	form.ToggleRole("org-1", "role-1")
	form.Next()
	fillPersonal(form)
	form.SetPersonalField("phone", "555-0101")
	form.Next()

	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(backend.created) != 1 || len(backend.updated) != 0 {
		t.Fatalf("created=%d updated=%d, want 1/0", len(backend.created), len(backend.updated))
	}

	draft := backend.created[0]
	if draft.UserUID != "" {
		t.Fatalf("create payload carried userUid %q", draft.UserUID)
	}
	if draft.FirstName != "Jane" || draft.LastName != "Doe" || draft.Mail != "jane@example.com" || draft.Phone != "555-0101" {
		t.Fatalf("personal data mismatch: %+v", draft)
	}
	if len(draft.Organisations) != 2 {
		t.Fatalf("organisations = %d, want 2", len(draft.Organisations))
	}
	// Selection order, then role assignment order within each entry.
	if draft.Organisations[0].OrgUID != "org-2" || draft.Organisations[1].OrgUID != "org-1" {
		t.Fatalf("organisation order = %s, %s", draft.Organisations[0].OrgUID, draft.Organisations[1].OrgUID)
	}
	first := draft.Organisations[0]
	if len(first.Roles) != 2 || first.Roles[0].RoleID != "role-2" || first.Roles[1].RoleID != "role-1" {
		t.Fatalf("role order mismatch: %+v", first.Roles)
	}
}

func TestEditSeedingSkipsDeletedMemberships(t *testing.T) {
	backend := newBackend()
	user := models.User{
		UserUID:   "u-9",
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Mail:      "jane@example.com",
		Organisations: []models.Membership{
			{OrgUID: "org-1", OrgName: "Org One", Roles: []models.RoleAssignment{{RoleID: "role-1"}}},
			{OrgUID: "org-old", OrgName: "Closed", Deleted: true, Roles: []models.RoleAssignment{{RoleID: "role-2"}}},
			{OrgUID: "org-2", OrgName: "Org Two", Roles: []models.RoleAssignment{{RoleID: "role-1"}, {RoleID: "role-2"}}},
		},
	}
	form := NewForEdit(backend, staticCred{}, user)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	form.WaitReady(ctx)

	st := form.Snapshot()
	if len(st.Selected) != 2 {
		t.Fatalf("selected = %v, want the two active memberships", st.Selected)
	}
	if st.Selected[0].ID != "org-1" || st.Selected[1].ID != "org-2" {
		t.Fatalf("selection order = %s, %s", st.Selected[0].ID, st.Selected[1].ID)
	}
	if _, ok := st.AssignedRoles["org-old"]; ok {
		t.Fatalf("deleted membership seeded role state")
	}
	if got := st.AssignedRoles["org-2"]; len(got) != 2 {
		t.Fatalf("org-2 roles = %v, want 2", got)
	}
	if st.Personal.Username != "jdoe" || st.Personal.Mail != "jane@example.com" {
		t.Fatalf("personal data not seeded: %+v", st.Personal)
	}
}

func TestSubmitIncludesUserUIDOnlyWhenEditing(t *testing.T) {
	backend := newBackend()
	user := models.User{
		UserUID: "u-9", Username: "jdoe", FirstName: "Jane", LastName: "Doe", Mail: "jane@example.com",
		Organisations: []models.Membership{
			{OrgUID: "org-1", OrgName: "Org One", Roles: []models.RoleAssignment{{RoleID: "role-1"}}},
		},
	}
	form := NewForEdit(backend, staticCred{}, user)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	form.WaitReady(ctx)

	form.Next()
	form.Next()
	form.Next()
	if got := form.Snapshot().Step; got != StepReview {
		t.Fatalf("step = %v, want review", got)
	}

	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(backend.updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(backend.updated))
	}
	if backend.updated[0].UserUID != "u-9" {
		t.Fatalf("update payload userUid = %q, want u-9", backend.updated[0].UserUID)
	}
}

func TestSubmitFailureKeepsStateAndSurfacesServerMessage(t *testing.T) {
	backend := newBackend()
	backend.saveErr = &api.ValidationError{Status: 400, Message: "mail address already in use"}
	form := openForm(t, backend)

	form.ToggleOrganisation("org-1")
	form.Next()
	form.ToggleRole("org-1", "role-1")
	form.Next()
	fillPersonal(form)
	form.Next()

	if _, err := form.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit to fail")
	}
	st := form.Snapshot()
	if st.ErrorMessage != "mail address already in use" {
		t.Fatalf("error message = %q", st.ErrorMessage)
	}
	if st.Step != StepReview {
		t.Fatalf("step = %v, want review retained", st.Step)
	}
	if st.Personal.Mail != "jane@example.com" || len(st.Selected) != 1 {
		t.Fatalf("entered state lost after failed submit")
	}

	// Retry succeeds once the backend accepts.
	backend.saveErr = nil
	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
}

func TestReferenceLoadFailureDegradesWithWarning(t *testing.T) {
	backend := newBackend()
	backend.refErr = errors.New("boom")
	form := openForm(t, backend)

	st := form.Snapshot()
	if st.RefLoading {
		t.Fatalf("still loading after WaitReady")
	}
	if st.RefWarning == "" {
		t.Fatalf("expected a degradation warning")
	}
	if len(st.Organisations) != 0 || len(st.Roles) != 0 {
		t.Fatalf("expected empty selectable sets, got %v / %v", st.Organisations, st.Roles)
	}
}

func TestBackHasNoGate(t *testing.T) {
	form := openForm(t, newBackend())
	form.ToggleOrganisation("org-1")
	form.Next()

	form.Back()
	if got := form.Snapshot().Step; got != StepSelectOrganisations {
		t.Fatalf("step = %v after back", got)
	}
	form.Back()
	if got := form.Snapshot().Step; got != StepSelectOrganisations {
		t.Fatalf("back below first step moved to %v", got)
	}
}

func TestRegistryOpenReplacesPreviousForm(t *testing.T) {
	backend := newBackend()
	reg := NewRegistry()

	first := openForm(t, backend)
	reg.Open("sess", first)
	second := openForm(t, backend)
	reg.Open("sess", second)

	got, ok := reg.Get("sess")
	if !ok || got != second {
		t.Fatalf("registry did not hold the replacement form")
	}

	reg.Drop("sess")
	if _, ok := reg.Get("sess"); ok {
		t.Fatalf("form survived Drop")
	}
}
