package authmw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/models"
)

const userKey = "user"

type SessionReader interface {
	User() (models.UserInfo, bool)
	IsAdmin() bool
}

// RequireLogin rejects requests while no unexpired user session is stored.
func RequireLogin(s SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := s.User()
			if !ok {
				logging.FromContext(c.Request().Context()).Warn("auth_required", "status", 401)
				return echo.NewHTTPError(http.StatusUnauthorized, "please log in")
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

// UserFrom returns the user stored by RequireLogin.
func UserFrom(c echo.Context) (models.UserInfo, bool) {
	u, ok := c.Get(userKey).(models.UserInfo)
	return u, ok
}
