package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/nirmalhandloom/storefront/internal/identity"
)

// Product is a catalog entry as supplied by the backend or the bundled dataset.
type Product struct {
	ID           identity.Key `json:"_id,omitempty"`
	LegacyID     identity.Key `json:"id,omitempty"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Price        float64      `json:"price"`
	Discount     float64      `json:"discount"`
	Image        string       `json:"image,omitempty"`
	Images       []string     `json:"images,omitempty"`
	Category     CategoryRef  `json:"category"`
	Subcategory  string       `json:"subcategory,omitempty"`
	CountInStock int          `json:"countInStock,omitempty"`
}

func (p Product) IdentityKeys() (identity.Key, identity.Key) { return p.ID, p.LegacyID }

// CategoryRef is either a bare category name or a populated category object.
type CategoryRef struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"name"`
}

func (c *CategoryRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = CategoryRef{}
		return nil
	}
	if b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*c = CategoryRef{Name: name}
		return nil
	}
	type plain CategoryRef
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = CategoryRef(v)
	return nil
}

type Category struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Snapshot holds the product fields captured when an item enters the cart or
// the wishlist. Later backend price changes do not reach it.
type Snapshot struct {
	Name     string      `json:"name"`
	Price    float64     `json:"price"`
	Discount float64     `json:"discount"`
	Image    string      `json:"image,omitempty"`
	Category CategoryRef `json:"category"`
}

func SnapshotOf(p Product) Snapshot {
	return Snapshot{
		Name:     p.Name,
		Price:    p.Price,
		Discount: p.Discount,
		Image:    p.Image,
		Category: p.Category,
	}
}

type LineItem struct {
	ID identity.ID `json:"id"`
	Snapshot
	Quantity int `json:"quantity"`
}

type WishlistEntry struct {
	ID identity.ID `json:"id"`
	Snapshot
}

type Address struct {
	ID        string   `json:"_id,omitempty"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zip       string   `json:"zip"`
	Country   string   `json:"country"`
	Phone     string   `json:"phone"`
	IsDefault bool     `json:"isDefault"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// PaymentOrder is the handle returned by POST /orders/razorpay.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type OrderItem struct {
	Name    string  `json:"name"`
	Qty     int     `json:"qty"`
	Image   string  `json:"image,omitempty"`
	Price   float64 `json:"price"`
	Product string  `json:"product,omitempty"`
}

type Order struct {
	ID              string          `json:"_id"`
	User            json.RawMessage `json:"user,omitempty"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	TotalPrice      float64         `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// UserInfo is the auth payload persisted under the `userInfo` key.
type UserInfo struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
	Token    string `json:"token"`
}
