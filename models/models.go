package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Session is the console-side login session. The backend user directory
// knows nothing about it; it only carries the identity-provider tokens.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID             string    `bun:"id,pk"`
	Username       string    `bun:"username,notnull"`
	Email          string    `bun:"email"`
	RolesJSON      string    `bun:"roles_json,notnull,default:'[]'"`
	AccessToken    string    `bun:"access_token,notnull"`
	RefreshToken   string    `bun:"refresh_token,notnull"`
	TokenExpiresAt time.Time `bun:"token_expires_at,notnull"`
	ExpiresAt      time.Time `bun:"expires_at,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Roles []string `bun:"-"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// DecodeRoles populates Roles from the stored JSON column.
func (s *Session) DecodeRoles() {
	s.Roles = nil
	if s.RolesJSON == "" {
		return
	}
	_ = json.Unmarshal([]byte(s.RolesJSON), &s.Roles)
}

// EncodeRoles serializes Roles into the stored JSON column.
func (s *Session) EncodeRoles() {
	b, err := json.Marshal(s.Roles)
	if err != nil || len(s.Roles) == 0 {
		s.RolesJSON = "[]"
		return
	}
	s.RolesJSON = string(b)
}

// AuditLog captures immutable change history for backend mutations made
// through the console.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Actor      string    `bun:"actor,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// User is a directory record as the backend returns it.
type User struct {
	UserUID       string       `json:"userUid"`
	Username      string       `json:"username"`
	FirstName     string       `json:"firstName"`
	LastName      string       `json:"lastName"`
	Mail          string       `json:"mail"`
	Phone         string       `json:"phone"`
	Deleted       bool         `json:"deleted"`
	Organisations []Membership `json:"organisations"`
}

// ActiveMemberships returns the memberships not flagged as deleted. The
// backend keeps soft-deleted memberships in the payload; active views skip
// them.
func (u User) ActiveMemberships() []Membership {
	active := make([]Membership, 0, len(u.Organisations))
	for _, m := range u.Organisations {
		if !m.Deleted {
			active = append(active, m)
		}
	}
	return active
}

// Membership associates a user with one organisation and its role
// assignments. It never exists detached from a user.
type Membership struct {
	OrgUID  string           `json:"orgUid"`
	OrgName string           `json:"orgName"`
	Deleted bool             `json:"deleted"`
	Roles   []RoleAssignment `json:"roles"`
}

// RoleAssignment scopes one role to one membership.
type RoleAssignment struct {
	RoleID   string `json:"roleId"`
	RoleName string `json:"roleName,omitempty"`
}

// Option is a reference-data entry from the select endpoints.
type Option struct {
	ID    string `json:"uuid"`
	Label string `json:"label"`
}

// UserDraft is the create/update request body. The backend derives the
// username itself, so the body never carries one.
type UserDraft struct {
	UserUID       string            `json:"userUid,omitempty"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Mail          string            `json:"mail"`
	Phone         string            `json:"phone"`
	Organisations []MembershipDraft `json:"organisations"`
}

// MembershipDraft is one organisation entry in a UserDraft.
type MembershipDraft struct {
	OrgUID string    `json:"orgUid"`
	Roles  []RoleRef `json:"roles"`
}

// RoleRef references a role by id only.
type RoleRef struct {
	RoleID string `json:"roleId"`
}
