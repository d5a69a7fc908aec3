package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/nirmalhandloom/storefront/internal/models"
)

// ProductInput is the admin create/update body.
type ProductInput struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Discount     float64 `json:"discount"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	CountInStock int     `json:"countInStock"`
	Image        string  `json:"image"`
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodPost, "/products", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateCategory(ctx context.Context, in models.Category) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPost, "/categories", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in models.Category) (*models.Category, error) {
	var out models.Category
	if err := c.do(ctx, http.MethodPut, "/categories/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil)
}

type userList []models.UserInfo

func (l *userList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, (*[]models.UserInfo)(l))
	}
	var wrapped struct {
		Users []models.UserInfo `json:"users"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Users
	return nil
}

func (c *Client) Users(ctx context.Context) ([]models.UserInfo, error) {
	var out userList
	if err := c.do(ctx, http.MethodGet, "/users?isAdmin=true", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SetUserStatus(ctx context.Context, id string, active bool) error {
	body := struct {
		IsActive bool `json:"isActive"`
	}{IsActive: active}
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/status", body, nil)
}
