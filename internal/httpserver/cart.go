package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/pricing"
	"github.com/nirmalhandloom/storefront/internal/store"
)

type CartHTTP struct {
	Store *store.Store
}

type cartLine struct {
	models.LineItem
	UnitPrice int64 `json:"unit_price"`
	LineTotal int64 `json:"line_total"`
}

type cartResponse struct {
	Items []cartLine `json:"items"`
	Count int        `json:"count"`
	Total int64      `json:"total"`
}

func (h *CartHTTP) cartResponse() cartResponse {
	items := h.Store.Cart()
	lines := make([]cartLine, len(items))
	for i, it := range items {
		lines[i] = cartLine{LineItem: it, UnitPrice: pricing.UnitPrice(it.Price, it.Discount), LineTotal: pricing.LineTotal(it)}
	}
	return cartResponse{Items: lines, Count: h.Store.Count(), Total: pricing.Total(items)}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cartResponse())
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.add")

	var p models.Product
	if err := c.Bind(&p); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	item, ok := h.Store.AddToCart(p)
	if !ok {
		l.Warn("add_to_cart_error", "status", 400, "reason", "product has no id")
		return echo.NewHTTPError(http.StatusBadRequest, "_id or id required")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.update_quantity")

	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	id := identity.Parse(c.Param("id"))
	item, ok := h.Store.UpdateQuantity(id, req.Delta)
	if !ok {
		l.Warn("update_quantity_error", "status", 404, "id", id)
		return echo.NewHTTPError(http.StatusNotFound, "item not in cart")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	id := identity.Parse(c.Param("id"))
	removed := h.Store.RemoveFromCart(id)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "removed": removed})
}

func (h *CartHTTP) GetWishlist(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Store.Wishlist(), "count": h.Store.WishlistLen()})
}

func (h *CartHTTP) AddToWishlist(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "wishlist.add")

	var p models.Product
	if err := c.Bind(&p); err != nil {
		l.Warn("add_to_wishlist_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	id := identity.Of(p)
	if id.Empty() {
		l.Warn("add_to_wishlist_error", "status", 400, "reason", "product has no id")
		return echo.NewHTTPError(http.StatusBadRequest, "_id or id required")
	}
	added := h.Store.AddToWishlist(p)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "added": added})
}

func (h *CartHTTP) InWishlist(c echo.Context) error {
	id := identity.Parse(c.Param("id"))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "in_wishlist": h.Store.IsInWishlist(id)})
}

func (h *CartHTTP) RemoveFromWishlist(c echo.Context) error {
	id := identity.Parse(c.Param("id"))
	removed := h.Store.RemoveFromWishlist(id)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "removed": removed})
}
