package api

import (
	"context"

	"github.com/theirongolddev/ngodash/internal/model"
)

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the account creation payload.
type Registration struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login exchanges credentials for a token and user.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/users/login", Credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and exchanges it for a token and user.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/users/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the profile of the user the bearer token belongs to.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	raw, err := c.getRaw(ctx, "/users/me")
	if err != nil {
		return nil, err
	}
	return decodeOne[model.User](raw)
}
