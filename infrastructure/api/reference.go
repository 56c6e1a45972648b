package api

import (
	"context"
	"net/http"

	"useradmin/models"
)

type optionsResponse struct {
	Options []models.Option `json:"options"`
}

// ListOrganisations fetches the selectable organisations. Never mutated by
// the console.
func (c *Client) ListOrganisations(ctx context.Context, cred Credential) ([]models.Option, error) {
	var resp optionsResponse
	if err := c.do(ctx, cred, http.MethodGet, "/organisations/select", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

// ListRoles fetches the selectable roles.
func (c *Client) ListRoles(ctx context.Context, cred Credential) ([]models.Option, error) {
	var resp optionsResponse
	if err := c.do(ctx, cred, http.MethodGet, "/roles/select", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}
