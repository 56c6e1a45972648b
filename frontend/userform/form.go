package userform

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"useradmin/infrastructure/api"
	"useradmin/models"
)

// Step is the typed state tag of the form workflow. Transitions are linear:
// forward only through Next (gated), backward only through Back.
type Step int

const (
	StepSelectOrganisations Step = iota
	StepAssignRoles
	StepPersonalData
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepSelectOrganisations:
		return "Organisations"
	case StepAssignRoles:
		return "Assign roles"
	case StepPersonalData:
		return "Personal data"
	case StepReview:
		return "Review"
	default:
		return "unknown"
	}
}

// Steps lists the workflow in order, for the stepper header.
func Steps() []Step {
	return []Step{StepSelectOrganisations, StepAssignRoles, StepPersonalData, StepReview}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Backend is the slice of the API client the form needs.
type Backend interface {
	ListOrganisations(ctx context.Context, cred api.Credential) ([]models.Option, error)
	ListRoles(ctx context.Context, cred api.Credential) ([]models.Option, error)
	CreateUser(ctx context.Context, cred api.Credential, draft models.UserDraft) (models.User, error)
	UpdateUser(ctx context.Context, cred api.Credential, draft models.UserDraft) (models.User, error)
}

// PersonalData is the free-text step's field set.
type PersonalData struct {
	Username  string
	FirstName string
	LastName  string
	Mail      string
	Phone     string
}

// Form drives the four-step create/edit workflow for one session. All
// entered state survives a failed submit; nothing is lost on retry.
type Form struct {
	backend Backend
	cred    api.Credential

	mu       sync.Mutex
	step     Step
	editing  bool
	userUID  string
	original models.User

	availableOrgs  []models.Option
	availableRoles []models.Option
	refLoading     bool
	refWarning     string
	refDone        chan struct{}

	selected    []models.Option
	roles       map[string][]string
	personal    PersonalData
	fieldErrors map[string]string
	errMsg      string
	closed      bool
}

// New opens a form in create mode and starts the one-time reference data
// load. Step one shows a loading indicator until it lands.
func New(backend Backend, cred api.Credential) *Form {
	f := &Form{
		backend:     backend,
		cred:        cred,
		roles:       make(map[string][]string),
		fieldErrors: make(map[string]string),
		refLoading:  true,
		refDone:     make(chan struct{}),
	}
	go f.loadReferenceData()
	return f
}

// NewForEdit opens a form seeded from an existing record. Selection and
// role state come from the record's active memberships only; soft-deleted
// memberships stay invisible.
func NewForEdit(backend Backend, cred api.Credential, user models.User) *Form {
	f := New(backend, cred)
	f.mu.Lock()
	defer f.mu.Unlock()

	f.editing = true
	f.userUID = user.UserUID
	f.original = user
	f.personal = PersonalData{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Mail:      user.Mail,
		Phone:     user.Phone,
	}
	for _, m := range user.ActiveMemberships() {
		f.selected = append(f.selected, models.Option{ID: m.OrgUID, Label: m.OrgName})
		ids := make([]string, 0, len(m.Roles))
		for _, role := range m.Roles {
			ids = append(ids, role.RoleID)
		}
		f.roles[m.OrgUID] = ids
	}
	return f
}

// loadReferenceData runs once per form open, create and edit alike. A
// failure degrades to empty selectable sets plus a visible warning; the
// rest of the workflow stays usable.
func (f *Form) loadReferenceData() {
	defer close(f.refDone)

	orgs, orgErr := f.backend.ListOrganisations(context.Background(), f.cred)
	roles, roleErr := f.backend.ListRoles(context.Background(), f.cred)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.refLoading = false
	if orgErr != nil || roleErr != nil {
		if orgErr != nil {
			slog.Warn("userform: load organisations failed", slog.Any("err", orgErr))
		}
		if roleErr != nil {
			slog.Warn("userform: load roles failed", slog.Any("err", roleErr))
		}
		f.refWarning = "reference data could not be loaded"
	}
	if orgs != nil {
		f.availableOrgs = orgs
	}
	if roles != nil {
		f.availableRoles = roles
	}
}

// WaitReady blocks until the reference data load finished or ctx ends.
func (f *Form) WaitReady(ctx context.Context) {
	select {
	case <-f.refDone:
	case <-ctx.Done():
	}
}

// Close marks the form dead; a reference load still in flight is ignored
// on arrival.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// ToggleOrganisation adds or removes one organisation from the selection.
// Removing an organisation also removes its role assignments, so no
// orphaned roles survive.
func (f *Form) ToggleOrganisation(orgUID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, o := range f.selected {
		if o.ID == orgUID {
			f.selected = append(f.selected[:i], f.selected[i+1:]...)
			delete(f.roles, orgUID)
			f.errMsg = ""
			return
		}
	}
	for _, o := range f.availableOrgs {
		if o.ID == orgUID {
			f.selected = append(f.selected, o)
			f.errMsg = ""
			return
		}
	}
}

// ToggleRole adds or removes one role on one selected organisation.
func (f *Form) ToggleRole(orgUID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isSelectedLocked(orgUID) {
		return
	}
	assigned := f.roles[orgUID]
	for i, id := range assigned {
		if id == roleID {
			f.roles[orgUID] = append(assigned[:i], assigned[i+1:]...)
			return
		}
	}
	f.roles[orgUID] = append(assigned, roleID)
	f.errMsg = ""
}

func (f *Form) isSelectedLocked(orgUID string) bool {
	for _, o := range f.selected {
		if o.ID == orgUID {
			return true
		}
	}
	return false
}

// SetPersonalField updates one personal-data field and clears that field's
// error; other fields' errors stay until their own edits.
func (f *Form) SetPersonalField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case "username":
		f.personal.Username = value
	case "firstName":
		f.personal.FirstName = value
	case "lastName":
		f.personal.LastName = value
	case "mail":
		f.personal.Mail = value
	case "phone":
		f.personal.Phone = value
	default:
		return
	}
	delete(f.fieldErrors, name)
}

// Next advances one step when the current step's gate passes. A failed gate
// blocks the transition and leaves a user-visible message.
func (f *Form) Next() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step >= StepReview {
		return false
	}
	if !f.validateStepLocked() {
		return false
	}
	f.step++
	f.errMsg = ""
	return true
}

// Back moves one step backwards; no gate applies.
func (f *Form) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > StepSelectOrganisations {
		f.step--
		f.errMsg = ""
	}
}

func (f *Form) validateStepLocked() bool {
	switch f.step {
	case StepSelectOrganisations:
		if len(f.selected) == 0 {
			f.errMsg = "select at least one organisation"
			return false
		}
	case StepAssignRoles:
		for _, org := range f.selected {
			if len(f.roles[org.ID]) == 0 {
				f.errMsg = fmt.Sprintf("assign at least one role to organisation %q", org.Label)
				return false
			}
		}
	case StepPersonalData:
		errs := make(map[string]string)
		if strings.TrimSpace(f.personal.Username) == "" {
			errs["username"] = "username is required"
		}
		if strings.TrimSpace(f.personal.FirstName) == "" {
			errs["firstName"] = "first name is required"
		}
		if strings.TrimSpace(f.personal.LastName) == "" {
			errs["lastName"] = "last name is required"
		}
		if strings.TrimSpace(f.personal.Mail) == "" {
			errs["mail"] = "email is required"
		} else if !emailPattern.MatchString(f.personal.Mail) {
			errs["mail"] = "invalid email address"
		}
		if len(errs) > 0 {
			f.fieldErrors = errs
			f.errMsg = "please correct the highlighted fields"
			return false
		}
		f.fieldErrors = make(map[string]string)
	}
	return true
}

// BuildDraft assembles the submission payload: one entry per selected
// organisation in selection order, each carrying its assigned role ids in
// assignment order. The record id rides along only when editing.
func (f *Form) BuildDraft() models.UserDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buildDraftLocked()
}

func (f *Form) buildDraftLocked() models.UserDraft {
	draft := models.UserDraft{
		FirstName:     f.personal.FirstName,
		LastName:      f.personal.LastName,
		Mail:          f.personal.Mail,
		Phone:         f.personal.Phone,
		Organisations: make([]models.MembershipDraft, 0, len(f.selected)),
	}
	if f.editing {
		draft.UserUID = f.userUID
	}
	for _, org := range f.selected {
		entry := models.MembershipDraft{OrgUID: org.ID, Roles: make([]models.RoleRef, 0, len(f.roles[org.ID]))}
		for _, roleID := range f.roles[org.ID] {
			entry.Roles = append(entry.Roles, models.RoleRef{RoleID: roleID})
		}
		draft.Organisations = append(draft.Organisations, entry)
	}
	return draft
}

// Submit sends the assembled payload. Only the review step may submit. On
// failure the form keeps every entered value and surfaces the server's
// structured message when present.
func (f *Form) Submit(ctx context.Context) (models.User, error) {
	f.mu.Lock()
	if f.step != StepReview {
		f.mu.Unlock()
		return models.User{}, fmt.Errorf("submit is only available from the review step")
	}
	draft := f.buildDraftLocked()
	editing := f.editing
	f.mu.Unlock()

	var (
		saved models.User
		err   error
	)
	if editing {
		saved, err = f.backend.UpdateUser(ctx, f.cred, draft)
	} else {
		saved, err = f.backend.CreateUser(ctx, f.cred, draft)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.errMsg = api.UserMessage(err, "failed to save user")
		return models.User{}, err
	}
	f.errMsg = ""
	return saved, nil
}

// Original returns the record the form was seeded from, when editing.
func (f *Form) Original() (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.original, f.editing
}

// State is a render-ready snapshot of the form.
type State struct {
	Step          Step
	Editing       bool
	UserUID       string
	RefLoading    bool
	RefWarning    string
	Organisations []models.Option
	Roles         []models.Option
	Selected      []models.Option
	AssignedRoles map[string][]string
	Personal      PersonalData
	FieldErrors   map[string]string
	ErrorMessage  string
}

// Snapshot returns the current render state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	selected := make([]models.Option, len(f.selected))
	copy(selected, f.selected)

	assigned := make(map[string][]string, len(f.roles))
	for org, ids := range f.roles {
		cp := make([]string, len(ids))
		copy(cp, ids)
		assigned[org] = cp
	}

	fieldErrs := make(map[string]string, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		fieldErrs[k] = v
	}

	return State{
		Step:          f.step,
		Editing:       f.editing,
		UserUID:       f.userUID,
		RefLoading:    f.refLoading,
		RefWarning:    f.refWarning,
		Organisations: f.availableOrgs,
		Roles:         f.availableRoles,
		Selected:      selected,
		AssignedRoles: assigned,
		Personal:      f.personal,
		FieldErrors:   fieldErrs,
		ErrorMessage:  f.errMsg,
	}
}

// Registry keeps at most one open form per session.
type Registry struct {
	mu    sync.Mutex
	forms map[string]*Form
}

func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*Form)}
}

// Open installs a freshly created form, closing any previous one.
func (r *Registry) Open(sessionID string, f *Form) {
	r.mu.Lock()
	prev := r.forms[sessionID]
	r.forms[sessionID] = f
	r.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

func (r *Registry) Get(sessionID string) (*Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[sessionID]
	return f, ok
}

// Drop closes and forgets the session's form.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	f, ok := r.forms[sessionID]
	delete(r.forms, sessionID)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
}
