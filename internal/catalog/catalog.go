// Package catalog reads products and categories from the backend and falls
// back to a bundled dataset when the backend cannot be reached.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
	"github.com/nirmalhandloom/storefront/internal/search"
	"github.com/nirmalhandloom/storefront/internal/util"
)

//go:embed data/products.json
var bundled []byte

const similarLimit = 4

var (
	ErrNotFound   = errors.New("product not found")
	ErrValidation = errors.New("validation error")
)

const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

type Backend interface {
	Products(ctx context.Context, query url.Values) (*apiclient.ProductPage, error)
	Product(ctx context.Context, id string) (*apiclient.ProductDetail, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (search.Result, error)
}

type Filter struct {
	Category string
	Keyword  string
	MaxPrice float64
	Sort     string
	Page     int
	Size     int
}

type Page struct {
	Products []models.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	Total    int              `json:"total"`
	Fallback bool             `json:"fallback"`
}

type Detail struct {
	Product         models.Product   `json:"product"`
	SimilarProducts []models.Product `json:"similarProducts"`
	Fallback        bool             `json:"fallback"`
}

type Catalog struct {
	backend  Backend
	searcher Searcher
	static   []models.Product
	group    singleflight.Group
	log      *slog.Logger
}

type Option func(*Catalog)

func WithSearcher(s Searcher) Option {
	return func(c *Catalog) { c.searcher = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

func New(backend Backend, opts ...Option) (*Catalog, error) {
	var static []models.Product
	if err := json.Unmarshal(bundled, &static); err != nil {
		return nil, fmt.Errorf("bundled catalog: %w", err)
	}
	c := &Catalog{backend: backend, static: static, log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "catalog")
	return c, nil
}

const (
	// fetchTimeout bounds a shared product list fetch, which outlives the
	// request that started it.
	fetchTimeout = 10 * time.Second
	// maxSearchHits is Elasticsearch's default max_result_window.
	maxSearchHits = 10000
)

// all returns every product. Concurrent callers share one backend request;
// a caller that gives up does not cancel it for the others.
func (c *Catalog) all(ctx context.Context) ([]models.Product, bool) {
	ch := c.group.DoChan("products", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		page, err := c.backend.Products(fctx, nil)
		if err != nil {
			return nil, err
		}
		return page.Products, nil
	})

	var (
		v   any
		err error
	)
	select {
	case r := <-ch:
		v, err = r.Val, r.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		c.log.Warn("catalog_fallback", "reason", "product list", "error", err)
		return c.static, true
	}
	return v.([]models.Product), false
}

func (c *Catalog) List(ctx context.Context, f Filter) (Page, error) {
	switch f.Sort {
	case "", SortNewest, SortPriceLow, SortPriceHigh:
	default:
		return Page{}, fmt.Errorf("unknown sort %q: %w", f.Sort, ErrValidation)
	}
	if f.MaxPrice < 0 {
		return Page{}, fmt.Errorf("negative max price: %w", ErrValidation)
	}

	products, fallback := c.all(ctx)
	filtered := make([]models.Product, 0, len(products))

	var hits map[identity.ID]bool
	if kw := strings.TrimSpace(f.Keyword); kw != "" && c.searcher != nil && !fallback {
		hits = c.searchHits(ctx, kw)
	}

	for _, p := range products {
		if !matches(p, f, hits) {
			continue
		}
		filtered = append(filtered, p)
	}
	sortProducts(filtered, f.Sort)

	from, size := util.Calculate(f.Page, f.Size)
	page := from/size + 1
	out := Page{
		Products: []models.Product{},
		Page:     page,
		Pages:    util.Pages(len(filtered), size),
		Total:    len(filtered),
		Fallback: fallback,
	}
	if from < len(filtered) {
		end := min(from+size, len(filtered))
		out.Products = filtered[from:end]
	}
	return out, nil
}

// searchHits pages through every hit for kw. It returns nil when the search
// backend fails, so the keyword is matched locally instead.
func (c *Catalog) searchHits(ctx context.Context, kw string) map[identity.ID]bool {
	hits := make(map[identity.ID]bool)
	for from := 0; from < maxSearchHits; {
		res, err := c.searcher.Search(ctx, kw, from, util.MaxPageSize)
		if err != nil {
			c.log.Warn("search_failed", "keyword", kw, "from", from, "error", err)
			return nil
		}
		for _, id := range res.IDs() {
			hits[id] = true
		}
		from += len(res.Products)
		if len(res.Products) == 0 || int64(from) >= res.Total {
			break
		}
	}
	return hits
}

func categoryName(p models.Product) string {
	return p.Category.Name
}

func matches(p models.Product, f Filter, hits map[identity.ID]bool) bool {
	if f.Category != "" && categoryName(p) != f.Category {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if hits != nil {
			if !hits[identity.Of(p)] {
				return false
			}
		} else if !strings.Contains(strings.ToLower(p.Name), kw) &&
			!strings.Contains(strings.ToLower(categoryName(p)), kw) {
			return false
		}
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	return true
}

func sortProducts(ps []models.Product, by string) {
	switch by {
	case SortPriceLow:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price < ps[j].Price })
	case SortPriceHigh:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price > ps[j].Price })
	default:
		sort.SliceStable(ps, func(i, j int) bool { return newer(identity.Of(ps[i]), identity.Of(ps[j])) })
	}
}

// newer orders numeric identities numerically and the rest lexically, both
// descending.
func newer(a, b identity.ID) bool {
	na, errA := strconv.ParseFloat(string(a), 64)
	nb, errB := strconv.ParseFloat(string(b), 64)
	if errA == nil && errB == nil {
		return na > nb
	}
	return a > b
}

// Get returns one product with up to four similar ones. Lookup in the
// bundled dataset matches either identity field.
func (c *Catalog) Get(ctx context.Context, id string) (Detail, error) {
	want := identity.Parse(id)
	if want.Empty() {
		return Detail{}, fmt.Errorf("empty product id: %w", ErrValidation)
	}

	d, err := c.backend.Product(ctx, string(want))
	if err == nil {
		similar := d.SimilarProducts
		if len(similar) > similarLimit {
			similar = similar[:similarLimit]
		}
		if similar == nil {
			similar = []models.Product{}
		}
		return Detail{Product: d.Product, SimilarProducts: similar}, nil
	}
	if apiclient.StatusOf(err) == 404 {
		return Detail{}, fmt.Errorf("product %s: %w", want, ErrNotFound)
	}
	c.log.Warn("catalog_fallback", "reason", "product detail", "id", want, "error", err)

	for _, p := range c.static {
		if identity.ID(p.ID) == want || identity.ID(p.LegacyID) == want {
			return Detail{Product: p, SimilarProducts: c.similarStatic(p), Fallback: true}, nil
		}
	}
	return Detail{}, fmt.Errorf("product %s: %w", want, ErrNotFound)
}

func (c *Catalog) similarStatic(p models.Product) []models.Product {
	self := identity.Of(p)
	out := make([]models.Product, 0, similarLimit)
	for _, q := range c.static {
		if identity.Of(q) == self {
			continue
		}
		out = append(out, q)
		if len(out) == similarLimit {
			break
		}
	}
	return out
}

// Categories lists backend categories, or the distinct categories of the
// bundled dataset when the backend is unreachable.
func (c *Catalog) Categories(ctx context.Context) ([]models.Category, bool) {
	cats, err := c.backend.Categories(ctx)
	if err == nil {
		if cats == nil {
			cats = []models.Category{}
		}
		return cats, false
	}
	c.log.Warn("catalog_fallback", "reason", "categories", "error", err)

	seen := make(map[string]bool)
	out := []models.Category{}
	for _, p := range c.static {
		name := categoryName(p)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, models.Category{Name: name})
	}
	return out, true
}

// ImageURL resolves a product image path against the API base. Absolute
// URLs pass through.
func ImageURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "data:") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
