package api

import (
	"context"
	"encoding/json"

	"github.com/theirongolddev/ngodash/internal/model"
)

// ListDonors returns all donors.
func (c *Client) ListDonors(ctx context.Context) ([]model.Donor, error) {
	raw, err := c.getRaw(ctx, "/donors")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Donor](raw)
}

// GetDonor returns one donor.
func (c *Client) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	raw, err := c.getRaw(ctx, "/donors/"+segment(id))
	if err != nil {
		return nil, err
	}
	return decodeOne[model.Donor](raw)
}

// CreateDonor creates a donor.
func (c *Client) CreateDonor(ctx context.Context, d model.Donor) (*model.Donor, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/donors", d, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Donor](raw)
}

// UpdateDonor updates a donor.
func (c *Client) UpdateDonor(ctx context.Context, id string, d model.Donor) (*model.Donor, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/donors/"+segment(id), d, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.Donor](raw)
}

// DeleteDonor removes a donor.
func (c *Client) DeleteDonor(ctx context.Context, id string) error {
	return c.delete(ctx, "/donors/"+segment(id), nil)
}

// ListNGOs returns all NGOs.
func (c *Client) ListNGOs(ctx context.Context) ([]model.NGO, error) {
	raw, err := c.getRaw(ctx, "/ngos")
	if err != nil {
		return nil, err
	}
	return decodeList[model.NGO](raw)
}

// GetNGO returns one NGO.
func (c *Client) GetNGO(ctx context.Context, id string) (*model.NGO, error) {
	raw, err := c.getRaw(ctx, "/ngos/"+segment(id))
	if err != nil {
		return nil, err
	}
	return decodeOne[model.NGO](raw)
}

// CreateNGO creates an NGO.
func (c *Client) CreateNGO(ctx context.Context, n model.NGO) (*model.NGO, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/ngos", n, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.NGO](raw)
}

// UpdateNGO updates an NGO.
func (c *Client) UpdateNGO(ctx context.Context, id string, n model.NGO) (*model.NGO, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/ngos/"+segment(id), n, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.NGO](raw)
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	raw, err := c.getRaw(ctx, "/users")
	if err != nil {
		return nil, err
	}
	return decodeList[model.User](raw)
}

// GetUser returns one user.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	raw, err := c.getRaw(ctx, "/users/"+segment(id))
	if err != nil {
		return nil, err
	}
	return decodeOne[model.User](raw)
}

// UpdateUser updates a user's profile fields.
func (c *Client) UpdateUser(ctx context.Context, id string, u model.User) (*model.User, error) {
	var raw json.RawMessage
	if err := c.put(ctx, "/users/"+segment(id), u, &raw); err != nil {
		return nil, err
	}
	return decodeOne[model.User](raw)
}

// ActivateUser re-enables an account.
func (c *Client) ActivateUser(ctx context.Context, id string) error {
	return c.put(ctx, "/users/activate/"+segment(id), nil, nil)
}

// DeactivateUser disables an account.
func (c *Client) DeactivateUser(ctx context.Context, id string) error {
	return c.put(ctx, "/users/deactivate/"+segment(id), map[string]string{"status": "inactive"}, nil)
}
