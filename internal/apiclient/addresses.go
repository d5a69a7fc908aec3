package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nirmalhandloom/storefront/internal/models"
)

// MaxAddresses is the per-user cap enforced by the backend.
const MaxAddresses = 4

var ErrAddressLimit = errors.New("address limit reached")

// Addresses lists the signed-in user's shipping addresses.
func (c *Client) Addresses(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	if err := c.do(ctx, http.MethodGet, "/users/address", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAddress creates an address and returns the updated list.
func (c *Client) AddAddress(ctx context.Context, a models.Address) ([]models.Address, error) {
	var out []models.Address
	if err := c.do(ctx, http.MethodPost, "/users/address", a, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateAddress(ctx context.Context, id string, a models.Address) ([]models.Address, error) {
	var out []models.Address
	if err := c.do(ctx, http.MethodPut, "/users/address/"+url.PathEscape(id), a, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteAddress(ctx context.Context, id string) ([]models.Address, error) {
	var out []models.Address
	if err := c.do(ctx, http.MethodDelete, "/users/address/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAddressChecked refuses a fifth address locally when the current list is
// already known to be full.
func (c *Client) AddAddressChecked(ctx context.Context, current []models.Address, a models.Address) ([]models.Address, error) {
	if len(current) >= MaxAddresses {
		return nil, fmt.Errorf("%d addresses saved: %w", len(current), ErrAddressLimit)
	}
	return c.AddAddress(ctx, a)
}
