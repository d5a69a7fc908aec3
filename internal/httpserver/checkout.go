package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/checkout"
	"github.com/nirmalhandloom/storefront/internal/gateway"
	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/models"
)

type CheckoutHTTP struct {
	Orch *checkout.Orchestrator
}

// sessionResponse carries a session that is usable even though its address
// list could not be fetched.
type sessionResponse struct {
	checkout.View
	AddressError string `json:"address_error,omitempty"`
}

func respondSession(c echo.Context, l *slog.Logger, status int, v checkout.View, err error) error {
	if errors.Is(err, checkout.ErrAddressUnavailable) {
		l.Warn("address_fetch_error", "session", v.ID, "error", err)
		return c.JSON(status, sessionResponse{View: v, AddressError: "could not load saved addresses"})
	}
	return c.JSON(status, sessionResponse{View: v})
}

func (h *CheckoutHTTP) Begin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.begin")

	v, err := h.Orch.Begin(ctx)
	if err != nil && !errors.Is(err, checkout.ErrAddressUnavailable) {
		return fail(l, "checkout_begin_error", err)
	}
	return respondSession(c, l, http.StatusCreated, v, err)
}

func (h *CheckoutHTTP) Get(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.get")

	v, err := h.Orch.Get(c.Param("sid"))
	if err != nil {
		return fail(l, "checkout_get_error", err)
	}
	return c.JSON(http.StatusOK, sessionResponse{View: v})
}

func (h *CheckoutHTTP) ReloadAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.reload_addresses")

	v, err := h.Orch.LoadAddresses(ctx, c.Param("sid"))
	if err != nil && !errors.Is(err, checkout.ErrAddressUnavailable) {
		return fail(l, "checkout_addresses_error", err)
	}
	return respondSession(c, l, http.StatusOK, v, err)
}

func (h *CheckoutHTTP) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.add_address")

	var a models.Address
	if err := c.Bind(&a); err != nil {
		l.Warn("checkout_add_address_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	v, err := h.Orch.AddAddress(ctx, c.Param("sid"), a)
	if err != nil {
		return fail(l, "checkout_add_address_error", err)
	}
	return c.JSON(http.StatusCreated, sessionResponse{View: v})
}

func (h *CheckoutHTTP) SelectAddress(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout.select_address")

	var req struct {
		AddressID string `json:"address_id"`
	}
	if err := c.Bind(&req); err != nil || req.AddressID == "" {
		l.Warn("checkout_select_address_error", "status", 400, "reason", "address_id required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "address_id required")
	}
	v, err := h.Orch.SelectAddress(c.Param("sid"), req.AddressID)
	if err != nil {
		return fail(l, "checkout_select_address_error", err)
	}
	return c.JSON(http.StatusOK, sessionResponse{View: v})
}

func (h *CheckoutHTTP) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.pay")

	opts, err := h.Orch.Pay(ctx, c.Param("sid"))
	if err != nil {
		return fail(l, "checkout_pay_error", err)
	}
	l.Info("payment_opened", "session", c.Param("sid"), "order", opts.OrderID, "amount", opts.Amount)
	return c.JSON(http.StatusOK, opts)
}

func (h *CheckoutHTTP) Close(c echo.Context) error {
	if !h.Orch.Close(c.Param("sid")) {
		return echo.NewHTTPError(http.StatusNotFound, checkout.ErrSessionNotFound.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CheckoutHTTP) PaymentSuccess(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "payments.success")

	var req struct {
		PaymentID string `json:"payment_id"`
	}
	if err := c.Bind(&req); err != nil || req.PaymentID == "" {
		l.Warn("payment_success_error", "status", 400, "reason", "payment_id required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "payment_id required")
	}
	return c.JSON(http.StatusOK, h.Orch.Succeed(c.Param("order_id"), req.PaymentID))
}

func (h *CheckoutHTTP) PaymentFailure(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "payments.failure")

	var f gateway.Failure
	if err := c.Bind(&f); err != nil {
		l.Warn("payment_failure_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.JSON(http.StatusOK, h.Orch.Fail(c.Param("order_id"), f))
}

func (h *CheckoutHTTP) PaymentDismiss(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Orch.Dismiss(c.Param("order_id")))
}
