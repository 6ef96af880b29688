package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ShopDirectory resolves seller display names. Used only for grouping
// display; cart and checkout logic never depend on it.
type ShopDirectory interface {
	NameOf(ctx context.Context, shopID string) (string, error)
}

type cachedName struct {
	name      string
	expiresAt time.Time
}

// HTTPShopDirectory resolves names from the shop service with a small
// in-process TTL cache. singleflight collapses concurrent lookups of the
// same shop into one request.
type HTTPShopDirectory struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cachedName
	sfg   singleflight.Group
}

func NewHTTPShopDirectory(baseURL string, timeout time.Duration) *HTTPShopDirectory {
	return &HTTPShopDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		ttl:     10 * time.Minute,
		cache:   make(map[string]cachedName),
	}
}

func (d *HTTPShopDirectory) NameOf(ctx context.Context, shopID string) (string, error) {
	d.mu.RLock()
	entry, ok := d.cache[shopID]
	d.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.name, nil
	}

	v, err, _ := d.sfg.Do(shopID, func() (interface{}, error) {
		name, err := d.fetch(ctx, shopID)
		if err != nil {
			return nil, err
		}

		d.mu.Lock()
		d.cache[shopID] = cachedName{name: name, expiresAt: time.Now().Add(d.ttl)}
		d.mu.Unlock()
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (d *HTTPShopDirectory) fetch(ctx context.Context, shopID string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/shops/%s", d.baseURL, shopID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build shop request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("shop service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shop service returned status %d for shop %s", resp.StatusCode, shopID)
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode shop response: %w", err)
	}
	return out.Name, nil
}
