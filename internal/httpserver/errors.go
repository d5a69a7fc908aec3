package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/catalog"
	"github.com/nirmalhandloom/storefront/internal/checkout"
	"github.com/nirmalhandloom/storefront/internal/session"
)

// statusFor maps a domain error to an HTTP status and the message shown to
// the shopper.
func statusFor(err error) (int, string) {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, checkout.ErrNoAddress), errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, catalog.ErrValidation), errors.Is(err, session.ErrValidation),
		errors.Is(err, apiclient.ErrAddressLimit):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, session.ErrNotLoggedIn):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, checkout.ErrPaymentInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, checkout.ErrConfiguration), errors.Is(err, checkout.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, checkout.ErrOrderCreation), errors.Is(err, checkout.ErrAddressUnavailable):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, apiclient.ErrUnavailable):
		return http.StatusServiceUnavailable, "backend unavailable"
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, apiErr.Message
		}
		return http.StatusBadGateway, apiErr.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusFor(err)
	if status >= 500 {
		l.Error(event, "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}
