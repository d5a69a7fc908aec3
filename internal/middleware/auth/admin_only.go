package authmw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/logging"
)

func AdminOnly(s SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := s.User(); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "please log in")
			}
			if !s.IsAdmin() {
				logging.FromContext(c.Request().Context()).Warn("admin_required", "status", 403)
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights")
			}
			return next(c)
		}
	}
}
