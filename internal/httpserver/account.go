package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/models"
)

// AccountHTTP proxies the signed-in user's addresses and orders.
type AccountHTTP struct {
	Client *apiclient.Client
}

func (h *AccountHTTP) GetAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.get_addresses")

	list, err := h.Client.Addresses(ctx)
	if err != nil {
		return fail(l, "get_addresses_error", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.add_address")

	var a models.Address
	if err := c.Bind(&a); err != nil {
		l.Warn("add_address_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	current, err := h.Client.Addresses(ctx)
	if err != nil {
		return fail(l, "add_address_error", err)
	}
	list, err := h.Client.AddAddressChecked(ctx, current, a)
	if err != nil {
		return fail(l, "add_address_error", err)
	}
	return c.JSON(http.StatusCreated, list)
}

func (h *AccountHTTP) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_address")

	var a models.Address
	if err := c.Bind(&a); err != nil {
		l.Warn("update_address_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	list, err := h.Client.UpdateAddress(ctx, c.Param("id"), a)
	if err != nil {
		return fail(l, "update_address_error", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.delete_address")

	list, err := h.Client.DeleteAddress(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "delete_address_error", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AccountHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.my_orders")

	orders, err := h.Client.MyOrders(ctx)
	if err != nil {
		return fail(l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}
