package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"useradmin/models"
)

// UserFilter is the server-side search/filter state for the list endpoint.
// Pagination is not part of it; the console pages locally over the fetched
// window.
type UserFilter struct {
	Term   string
	OrgUID string
	RoleID string
}

func (f UserFilter) query() url.Values {
	q := url.Values{}
	if f.Term != "" {
		q.Set("searchUsernameOrLastname", f.Term)
		q.Set("searchMode", "SUBSTRING")
	}
	if f.OrgUID != "" {
		q.Set("orgUid", f.OrgUID)
	}
	if f.RoleID != "" {
		q.Set("roleId", f.RoleID)
	}
	return q
}

// ListUsers fetches the filtered user list. The server applies the filter;
// the returned slice is the full result window.
func (c *Client) ListUsers(ctx context.Context, cred Credential, f UserFilter) ([]models.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, cred, http.MethodGet, "/users", f.query(), nil, &raw); err != nil {
		return nil, err
	}
	return decodeUserList(raw).Users, nil
}

// GetUser fetches a single record by id.
func (c *Client) GetUser(ctx context.Context, cred Credential, id string) (models.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, cred, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return models.User{}, err
	}
	return decodeUserRecord(raw)
}

// CreateUser posts a new user draft and returns the created record.
func (c *Client) CreateUser(ctx context.Context, cred Credential, draft models.UserDraft) (models.User, error) {
	var raw json.RawMessage
	draft.UserUID = ""
	if err := c.do(ctx, cred, http.MethodPost, "/users", nil, draft, &raw); err != nil {
		return models.User{}, err
	}
	return decodeUserRecord(raw)
}

// UpdateUser puts a full draft for an existing record.
func (c *Client) UpdateUser(ctx context.Context, cred Credential, draft models.UserDraft) (models.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, cred, http.MethodPut, "/users/"+url.PathEscape(draft.UserUID), nil, draft, &raw); err != nil {
		return models.User{}, err
	}
	return decodeUserRecord(raw)
}

// DeleteUser soft-deletes a record server-side.
func (c *Client) DeleteUser(ctx context.Context, cred Credential, id string) error {
	return c.do(ctx, cred, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}
