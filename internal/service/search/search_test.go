package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"

	"github.com/kevinwiwaha/larabench/internal/models"
)

type fakeES struct {
	status int
	body   string

	method string
	path   string
	reqs   []string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.method = r.Method
	f.path = r.URL.Path
	if b, err := io.ReadAll(r.Body); err == nil {
		f.reqs = append(f.reqs, string(b))
	}
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func newFakeClient(t *testing.T, f *fakeES) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestSearchDecodesHits(t *testing.T) {
	f := &fakeES{
		status: http.StatusOK,
		body: `{
			"hits": {
				"total": {"value": 2, "relation": "eq"},
				"hits": [
					{"_index": "products", "_id": "1", "_score": 1.2,
					 "_source": {"id": 1, "sku": "sku-1", "name": "red widget", "description": "a widget", "price": 5, "stock": 10}},
					{"_index": "products", "_id": "2", "_score": 0.8,
					 "_source": {"id": 2, "sku": "sku-2", "name": "blue widget", "description": "a widget", "price": 15, "stock": 3}}
				]
			}
		}`,
	}
	client := newFakeClient(t, f)

	total, products, err := Search(context.Background(), client, "products", "widget", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, products, 2)

	require.EqualValues(t, 1, products[0].ID)
	require.Equal(t, "sku-1", products[0].SKU)
	require.Equal(t, "red widget", products[0].Name)
	require.Equal(t, 5.0, products[0].Price)
	require.Equal(t, 10, products[0].Stock)
	require.Equal(t, "blue widget", products[1].Name)

	// The query must carry the fuzzy multi_match over name and description.
	require.Len(t, f.reqs, 1)
	var q struct {
		Query struct {
			MultiMatch struct {
				Query     string   `json:"query"`
				Fields    []string `json:"fields"`
				Fuzziness string   `json:"fuzziness"`
			} `json:"multi_match"`
		} `json:"query"`
		From int `json:"from"`
		Size int `json:"size"`
	}
	require.NoError(t, json.Unmarshal([]byte(f.reqs[0]), &q))
	require.Equal(t, "widget", q.Query.MultiMatch.Query)
	require.Equal(t, []string{"name^2", "description"}, q.Query.MultiMatch.Fields)
	require.Equal(t, "AUTO", q.Query.MultiMatch.Fuzziness)
	require.Equal(t, 10, q.Size)
}

func TestSearchErrorStatus(t *testing.T) {
	f := &fakeES{status: http.StatusInternalServerError, body: `{"error": "boom"}`}
	client := newFakeClient(t, f)

	_, _, err := Search(context.Background(), client, "products", "widget", 0, 10)
	require.Error(t, err)
}

func TestIndexProduct(t *testing.T) {
	f := &fakeES{status: http.StatusCreated, body: `{"result": "created"}`}
	client := newFakeClient(t, f)

	p := &models.Product{ID: 7, SKU: "sku-7", Name: "green gadget", Price: 25, Stock: 4}
	require.NoError(t, IndexProduct(context.Background(), client, "products", p))

	require.Equal(t, http.MethodPut, f.method)
	require.Equal(t, "/products/_doc/7", f.path)
	require.Len(t, f.reqs, 1)

	var doc models.Product
	require.NoError(t, json.Unmarshal([]byte(f.reqs[0]), &doc))
	require.Equal(t, "sku-7", doc.SKU)
	require.Equal(t, "green gadget", doc.Name)
}

func TestDeleteProductToleratesMissingDoc(t *testing.T) {
	f := &fakeES{status: http.StatusNotFound, body: `{"result": "not_found"}`}
	client := newFakeClient(t, f)

	require.NoError(t, DeleteProduct(context.Background(), client, "products", 7))
	require.Equal(t, http.MethodDelete, f.method)
	require.Equal(t, "/products/_doc/7", f.path)
}

func TestDeleteProductServerError(t *testing.T) {
	f := &fakeES{status: http.StatusInternalServerError, body: `{"error": "boom"}`}
	client := newFakeClient(t, f)

	require.Error(t, DeleteProduct(context.Background(), client, "products", 7))
}
