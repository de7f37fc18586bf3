package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestGroupMiddlewareAndNames(t *testing.T) {
	r := router.New()

	var hits int
	count := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits++
			next.ServeHTTP(w, req)
		})
	}

	api := r.Group("/api")
	api.Get("/shops", "catalog.shops", ok)
	protected := api.Group("/basket", count)
	protected.Put("/{id}", "basket.item.update", ok)
	protected.Delete("/{id}", "basket.item.remove", ok)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/basket/3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/shops", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits, "public route must not run group middleware")

	url, err := r.URL("basket.item.remove", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/basket/7", url)

	_, err = r.URL("basket.item.remove", nil)
	assert.Error(t, err)
}

func TestRoutesSorted(t *testing.T) {
	r := router.New()
	g := r.Group("/api")
	g.Post("/order", "orders.place", ok)
	g.Get("/order", "orders.index", ok)
	g.Get("/categories", "catalog.categories", ok)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/api/categories", routes[0].Path)
	assert.Equal(t, http.MethodGet, routes[1].Method)
	assert.Equal(t, http.MethodPost, routes[2].Method)
}

func TestNotFoundIsJSON(t *testing.T) {
	r := router.New()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}
