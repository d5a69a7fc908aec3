package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authmw "github.com/nirmalhandloom/storefront/internal/middleware/auth"
)

// Pinger reports whether durable storage is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Storage  Pinger
	Session  authmw.SessionReader
	CSRF     bool
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Auth     *AuthHTTP
	Account  *AccountHTTP
	Checkout *CheckoutHTTP
	Admin    *AdminHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Storage != nil {
			if err := d.Storage.PingContext(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	v1 := e.Group("/api/v1")
	if d.CSRF {
		v1.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:X-CSRF-Token",
			CookieName:     "csrf_token",
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
		}))
	}

	v1.GET("/products", d.Catalog.GetProducts)
	v1.GET("/products/:id", d.Catalog.GetProduct)
	v1.GET("/categories", d.Catalog.GetCategories)

	v1.GET("/cart", d.Cart.GetCart)
	v1.POST("/cart", d.Cart.AddToCart)
	v1.PATCH("/cart/:id", d.Cart.UpdateQuantity)
	v1.DELETE("/cart/:id", d.Cart.RemoveFromCart)

	v1.GET("/wishlist", d.Cart.GetWishlist)
	v1.POST("/wishlist", d.Cart.AddToWishlist)
	v1.GET("/wishlist/:id", d.Cart.InWishlist)
	v1.DELETE("/wishlist/:id", d.Cart.RemoveFromWishlist)

	requireLogin := authmw.RequireLogin(d.Session)

	auth := v1.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/register", d.Auth.Register)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me, requireLogin)
	auth.PUT("/profile", d.Auth.UpdateProfile, requireLogin)

	addresses := v1.Group("/addresses", requireLogin)
	addresses.GET("", d.Account.GetAddresses)
	addresses.POST("", d.Account.AddAddress)
	addresses.PUT("/:id", d.Account.UpdateAddress)
	addresses.DELETE("/:id", d.Account.DeleteAddress)

	v1.GET("/orders/mine", d.Account.MyOrders, requireLogin)

	co := v1.Group("/checkout", requireLogin)
	co.POST("", d.Checkout.Begin)
	co.GET("/:sid", d.Checkout.Get)
	co.GET("/:sid/addresses", d.Checkout.ReloadAddresses)
	co.POST("/:sid/addresses", d.Checkout.AddAddress)
	co.PUT("/:sid/address", d.Checkout.SelectAddress)
	co.POST("/:sid/pay", d.Checkout.Pay)
	co.DELETE("/:sid", d.Checkout.Close)

	payments := v1.Group("/payments/:order_id", requireLogin)
	payments.POST("/success", d.Checkout.PaymentSuccess)
	payments.POST("/failure", d.Checkout.PaymentFailure)
	payments.POST("/dismiss", d.Checkout.PaymentDismiss)

	admin := v1.Group("/admin", authmw.AdminOnly(d.Session))
	admin.GET("/orders", d.Admin.GetOrders)
	admin.PUT("/orders/:id/deliver", d.Admin.DeliverOrder)
	admin.POST("/products", d.Admin.CreateProduct)
	admin.PUT("/products/:id", d.Admin.UpdateProduct)
	admin.DELETE("/products/:id", d.Admin.DeleteProduct)
	admin.POST("/categories", d.Admin.CreateCategory)
	admin.PUT("/categories/:id", d.Admin.UpdateCategory)
	admin.DELETE("/categories/:id", d.Admin.DeleteCategory)
	admin.GET("/users", d.Admin.GetUsers)
	admin.DELETE("/users/:id", d.Admin.DeleteUser)
	admin.PUT("/users/:id/status", d.Admin.SetUserStatus)
}
