// Package search runs catalog keyword queries against Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/nirmalhandloom/storefront/internal/identity"
	"github.com/nirmalhandloom/storefront/internal/models"
)

var ErrSearch = errors.New("search failed")

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient connects and pings the cluster once.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info(es.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info %s: %s", res.Status(), body)
	}

	log.Info("elasticsearch_connected", "url", cfg.URL, "index", cfg.Index)
	return &Client{es: es, index: cfg.Index}, nil
}

type Result struct {
	Total    int64
	Products []models.Product
}

// IDs returns the canonical identities of the hits, in score order.
func (r Result) IDs() []identity.ID {
	ids := make([]identity.ID, 0, len(r.Products))
	for _, p := range r.Products {
		if id := identity.Of(p); !id.Empty() {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Client) Search(ctx context.Context, query string, from, size int) (Result, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "category.name", "category"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, fmt.Errorf("encode query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{}, fmt.Errorf("%w: %s", ErrSearch, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("decode hits: %w", err)
	}

	out := Result{Total: r.Hits.Total.Value, Products: make([]models.Product, len(r.Hits.Hits))}
	for i, h := range r.Hits.Hits {
		out.Products[i] = h.Source
	}
	return out, nil
}
