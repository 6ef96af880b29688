package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameOf_FetchesAndCaches(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/api/v1/shops/shop-a", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Shop A"})
	}))
	defer srv.Close()

	dir := NewHTTPShopDirectory(srv.URL, 5*time.Second)

	name, err := dir.NameOf(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Equal(t, "Shop A", name)

	// Second lookup is served from the cache.
	name, err = dir.NameOf(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Equal(t, "Shop A", name)
	assert.Equal(t, 1, requests)
}

func TestNameOf_ServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := NewHTTPShopDirectory(srv.URL, 5*time.Second)

	_, err := dir.NameOf(context.Background(), "missing")
	assert.Error(t, err)
}

func TestNameOf_ExpiredEntryRefetches(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Shop A"})
	}))
	defer srv.Close()

	dir := NewHTTPShopDirectory(srv.URL, 5*time.Second)
	dir.ttl = time.Millisecond

	_, err := dir.NameOf(context.Background(), "shop-a")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = dir.NameOf(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}
