package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/nirmalhandloom/storefront/internal/models"
)

type paymentOrderRequest struct {
	Amount int64 `json:"amount"`
}

// CreatePaymentOrder asks the backend for a gateway order handle for amount.
func (c *Client) CreatePaymentOrder(ctx context.Context, amount int64) (*models.PaymentOrder, error) {
	var out models.PaymentOrder
	if err := c.do(ctx, http.MethodPost, "/orders/razorpay", paymentOrderRequest{Amount: amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/myorders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type orderList []models.Order

func (l *orderList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, (*[]models.Order)(l))
	}
	var wrapped struct {
		Orders []models.Order `json:"orders"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Orders
	return nil
}

// Orders lists every order (admin).
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var out orderList
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeliverOrder(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/deliver", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
