package apiclient

import (
	"context"
	"net/http"

	"github.com/nirmalhandloom/storefront/internal/models"
)

type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := c.do(ctx, http.MethodPost, "/users/login", Credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := c.do(ctx, http.MethodPost, "/users/register", Credentials{Name: name, Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, p ProfileUpdate) (*models.UserInfo, error) {
	var out models.UserInfo
	if err := c.do(ctx, http.MethodPut, "/users/profile", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
