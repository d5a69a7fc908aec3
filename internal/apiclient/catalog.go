package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/nirmalhandloom/storefront/internal/models"
)

// ProductPage accepts both the paginated {products, page, pages} body and a
// bare product array.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

func (p *ProductPage) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []models.Product
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*p = ProductPage{Products: list, Page: 1, Pages: 1}
		return nil
	}
	type plain ProductPage
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = ProductPage(v)
	return nil
}

type ProductDetail struct {
	Product         models.Product   `json:"product"`
	SimilarProducts []models.Product `json:"similarProducts"`
}

func (c *Client) Products(ctx context.Context, query url.Values) (*ProductPage, error) {
	path := "/products"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Product(ctx context.Context, id string) (*ProductDetail, error) {
	var d ProductDetail
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
