package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nirmalhandloom/storefront/internal/catalog"
	"github.com/nirmalhandloom/storefront/internal/logging"
	"github.com/nirmalhandloom/storefront/internal/pricing"
	"github.com/nirmalhandloom/storefront/internal/util"
)

type CatalogHTTP struct {
	Catalog *catalog.Catalog
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	var maxPrice float64
	if raw := c.QueryParam("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			l.Warn("get_products_error", "status", 400, "reason", "max_price is not a number", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "max_price must be a number")
		}
		maxPrice = v
	}

	page, err := h.Catalog.List(ctx, catalog.Filter{
		Category: c.QueryParam("category"),
		Keyword:  c.QueryParam("keyword"),
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
		Page:     util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:     util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	})
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	return c.JSON(http.StatusOK, page)
}

type productView struct {
	catalog.Detail
	DisplayPrice int64 `json:"display_price"`
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	d, err := h.Catalog.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, productView{Detail: d, DisplayPrice: pricing.DisplayPrice(d.Product)})
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	cats, fallback := h.Catalog.Categories(c.Request().Context())
	return c.JSON(http.StatusOK, echo.Map{"categories": cats, "fallback": fallback})
}
