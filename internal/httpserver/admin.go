package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/models"
)

type AdminHTTP struct {
	Client *apiclient.Client
}

func (h *AdminHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_orders")

	orders, err := h.Client.Orders(ctx)
	if err != nil {
		return fail(l, "admin_orders_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *AdminHTTP) DeliverOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.deliver_order")

	o, err := h.Client.DeliverOrder(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "deliver_order_error", err)
	}
	l.Info("order_delivered", "order", o.ID)
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var in apiclient.ProductInput
	if err := c.Bind(&in); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if in.Name == "" || in.Price <= 0 {
		l.Warn("product_create_error", "status", 400, "reason", "name and positive price required")
		return echo.NewHTTPError(http.StatusBadRequest, "name and positive price required")
	}
	p, err := h.Client.CreateProduct(ctx, in)
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_product")

	var in apiclient.ProductInput
	if err := c.Bind(&in); err != nil {
		l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	p, err := h.Client.UpdateProduct(ctx, c.Param("id"), in)
	if err != nil {
		return fail(l, "product_update_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	if err := h.Client.DeleteProduct(ctx, c.Param("id")); err != nil {
		return fail(l, "product_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_category")

	var in models.Category
	if err := c.Bind(&in); err != nil || in.Name == "" {
		l.Warn("category_create_error", "status", 400, "reason", "name required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}
	cat, err := h.Client.CreateCategory(ctx, in)
	if err != nil {
		return fail(l, "category_create_error", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_category")

	var in models.Category
	if err := c.Bind(&in); err != nil {
		l.Warn("category_update_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	cat, err := h.Client.UpdateCategory(ctx, c.Param("id"), in)
	if err != nil {
		return fail(l, "category_update_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *AdminHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_category")

	if err := h.Client.DeleteCategory(ctx, c.Param("id")); err != nil {
		return fail(l, "category_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_users")

	users, err := h.Client.Users(ctx)
	if err != nil {
		return fail(l, "admin_users_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *AdminHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	if err := h.Client.DeleteUser(ctx, c.Param("id")); err != nil {
		return fail(l, "user_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) SetUserStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_user_status")

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		l.Warn("user_status_error", "status", 400, "reason", "isActive required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "isActive required")
	}
	if err := h.Client.SetUserStatus(ctx, c.Param("id"), *req.IsActive); err != nil {
		return fail(l, "user_status_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id"), "isActive": *req.IsActive})
}
