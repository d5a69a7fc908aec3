package search

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nirmalhandloom/storefront/internal/identity"
)

func fakeCluster(t *testing.T, searchStatus int, searchBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "multi_match")
			w.WriteHeader(searchStatus)
			_, _ = w.Write([]byte(searchBody))
			return
		}
		_, _ = w.Write([]byte(`{"name":"node","cluster_name":"test","version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search(t *testing.T) {
	t.Parallel()

	srv := fakeCluster(t, http.StatusOK, `{"hits":{"total":{"value":2},"hits":[
		{"_source":{"_id":"p1","name":"Kanjivaram Silk Saree"}},
		{"_source":{"id":7,"name":"Silk Stole"}}
	]}}`)

	c, err := NewClient(context.Background(), Config{URL: srv.URL, Index: "products"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "silk", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, []identity.ID{"p1", "7"}, res.IDs())
}

func TestClient_SearchError(t *testing.T) {
	t.Parallel()

	srv := fakeCluster(t, http.StatusBadRequest, `{"error":"bad"}`)

	c, err := NewClient(context.Background(), Config{URL: srv.URL, Index: "products"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "silk", 0, 10)
	assert.ErrorIs(t, err, ErrSearch)
}
