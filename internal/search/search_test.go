package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

// fakeES answers just enough of the REST API for the client under test.
type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	hits     []string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies[r.Method+" "+r.URL.Path] = string(body)
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		hits := make([]map[string]any, 0, len(f.hits))
		for _, id := range f.hits {
			hits = append(hits, map[string]any{"_id": id})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": len(f.hits)}, "hits": hits},
		})
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	default:
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}
}

func newFake(t *testing.T) (*fakeES, *Client) {
	t.Helper()
	fake := &fakeES{bodies: make(map[string]string)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Config{URL: srv.URL, Index: "test-products"}, nil)
	require.NoError(t, err)
	return fake, c
}

func TestNewClient_RequiresAddress(t *testing.T) {
	t.Parallel()
	_, err := NewClient(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestClient_IndexAndDelete(t *testing.T) {
	t.Parallel()
	fake, c := newFake(t)
	ctx := context.Background()

	p := models.Product{ID: uuid.New(), Name: "Lamp", Price: decimal.RequireFromString("19.99"), Category: "home"}
	require.NoError(t, c.IndexProduct(ctx, p))
	require.NoError(t, c.DeleteProduct(ctx, p.ID), "missing document counts as deleted")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.requests, "PUT /test-products/_doc/"+p.ID.String())
	assert.Contains(t, fake.requests, "DELETE /test-products/_doc/"+p.ID.String())

	var doc document
	require.NoError(t, json.Unmarshal([]byte(fake.bodies["PUT /test-products/_doc/"+p.ID.String()]), &doc))
	assert.Equal(t, "Lamp", doc.Name)
	assert.InDelta(t, 19.99, doc.Price, 0.0001)
}

func TestClient_SearchReturnsIDsInHitOrder(t *testing.T) {
	t.Parallel()
	fake, c := newFake(t)

	a, b := uuid.New(), uuid.New()
	fake.hits = []string{b.String(), "legacy-id", a.String()}

	total, ids, err := c.Search(context.Background(), "lamp", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uuid.UUID{b, a}, ids)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.bodies["POST /test-products/_search"], `"multi_match"`)
}
