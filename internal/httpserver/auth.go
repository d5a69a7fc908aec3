package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/session"
)

type AuthHTTP struct {
	Auth *session.Auth
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	u, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}
	l.Info("login_success", "user", u.ID)
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	u, err := h.Auth.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}
	l.Info("register_success", "user", u.ID)
	return c.JSON(http.StatusCreated, u)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	h.Auth.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	u, ok := h.Auth.Session.User()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_profile")

	var req apiclient.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		l.Warn("update_profile_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	u, err := h.Auth.UpdateProfile(ctx, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}
	return c.JSON(http.StatusOK, u)
}
