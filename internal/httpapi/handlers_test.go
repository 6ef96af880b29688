package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshop/checkout/internal/cart"
	"github.com/openshop/checkout/internal/domain"
	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/pricing"
	"github.com/openshop/checkout/internal/session"
	"github.com/openshop/checkout/internal/shipping"
)

type stubSnapshots struct {
	mu    sync.Mutex
	lines map[string][]domain.CartLineItem
}

func (s *stubSnapshots) Load(_ context.Context, userID string) ([]domain.CartLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.lines[userID]
	if !ok {
		return nil, cart.ErrSnapshotMiss
	}
	return lines, nil
}

func (s *stubSnapshots) Save(_ context.Context, userID string, lines []domain.CartLineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[userID] = lines
	return nil
}

func (s *stubSnapshots) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, userID)
	return nil
}

type stubProfiles struct{}

func (stubProfiles) Load(context.Context, string) (*domain.ShippingProfile, error) {
	return nil, shipping.ErrProfileNotFound
}

func (stubProfiles) Save(context.Context, string, domain.ShippingProfile) error {
	return nil
}

type stubOrders struct {
	mu  sync.Mutex
	id  string
	err error
}

func (s *stubOrders) Create(context.Context, domain.OrderPayload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.err
}

type stubShops struct{}

func (stubShops) NameOf(_ context.Context, shopID string) (string, error) {
	return "Shop " + shopID, nil
}

type testEnv struct {
	server    *httptest.Server
	snapshots *stubSnapshots
	orders    *stubOrders
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	snapshots := &stubSnapshots{lines: make(map[string][]domain.CartLineItem)}
	orders := &stubOrders{id: "order-abc-123"}

	sessions := session.NewManager(session.Deps{
		Snapshots: snapshots,
		Profiles:  stubProfiles{},
		Orders:    orders,
		Auth:      gateway.ContextSession{},
		Rules: pricing.Rules{
			FreeShippingThreshold: 500000,
			FlatShippingFee:       30000,
			Promos:                pricing.NewStaticResolver(pricing.Rule{Code: "TOTNGHIEP10", PercentOff: 10}),
		},
		Debounce: time.Minute,
	})
	t.Cleanup(sessions.Close)

	srv := httptest.NewServer(NewRouter(sessions, stubShops{}, 30*time.Second))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, snapshots: snapshots, orders: orders}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user123")
	req.Header.Set("X-User-Email", "a@example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func validProfileBody() map[string]string {
	return map[string]string{
		"full_name":   "Nguyen Van A",
		"email":       "a@example.com",
		"phone":       "0900000001",
		"address":     "1 Main St",
		"city":        "Hanoi",
		"postal_code": "70000",
	}
}

func TestCartEndpoints_Unauthorized(t *testing.T) {
	env := setupServer(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/cart", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAddItem_ThenGetCart(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1,
		"quantity":   2,
		"name":       "mug",
		"unit_price": 45000,
		"shop_id":    "shop-a",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var line domain.CartLineItem
	decode(t, resp, &line)
	assert.NotEmpty(t, line.ID)
	assert.Equal(t, 2, line.Quantity)

	resp = env.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cartView cartResponseDTO
	decode(t, resp, &cartView)
	require.Len(t, cartView.Items, 1)
	require.Len(t, cartView.Groups, 1)
	assert.Equal(t, "Shop shop-a", cartView.Groups[0].ShopName)
}

func TestAddItem_InvalidBody(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1,
		"quantity":   0,
		"shop_id":    "shop-a",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1, "quantity": 2, "unit_price": 45000, "shop_id": "shop-a",
	})
	var line domain.CartLineItem
	decode(t, resp, &line)

	resp = env.do(t, http.MethodPut, "/api/v1/cart/items/"+line.ID, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cartView cartResponseDTO
	decode(t, resp, &cartView)
	assert.Empty(t, cartView.Items)
}

func TestToggleAndShopSelection(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1, "quantity": 1, "unit_price": 45000, "shop_id": "shop-a",
	})
	var line domain.CartLineItem
	decode(t, resp, &line)

	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/"+line.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cartView cartResponseDTO
	decode(t, resp, &cartView)
	require.Len(t, cartView.Groups, 1)
	assert.Equal(t, domain.ShopSelectionAll, cartView.Groups[0].Selection)

	resp = env.do(t, http.MethodPut, "/api/v1/cart/shops/shop-a/selection", map[string]bool{"selected": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &cartView)
	assert.Equal(t, domain.ShopSelectionNone, cartView.Groups[0].Selection)
}

func TestQuote(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1, "quantity": 1, "unit_price": 300000, "shop_id": "shop-a",
	})
	var line domain.CartLineItem
	decode(t, resp, &line)
	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/"+line.ID+"/toggle", nil)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/v1/cart/quote?promo=TOTNGHIEP10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var quote domain.PricingResult
	decode(t, resp, &quote)
	assert.Equal(t, int64(300000), quote.Subtotal)
	assert.Equal(t, int64(30000), quote.Shipping)
	assert.Equal(t, int64(30000), quote.Discount)
	assert.Equal(t, int64(300000), quote.Total)
}

func TestShippingProfile_UpdateArmsDebounce(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPut, "/api/v1/shipping-profile", validProfileBody())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var view profileResponseDTO
	decode(t, resp, &view)
	assert.Equal(t, shipping.StatePendingDebounce, view.State)
	assert.Equal(t, "Hanoi", view.Profile.City)
}

func TestShippingProfile_SaveIncomplete(t *testing.T) {
	env := setupServer(t)

	body := validProfileBody()
	body["phone"] = ""
	resp := env.do(t, http.MethodPut, "/api/v1/shipping-profile", body)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/shipping-profile/save", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func submitReady(t *testing.T, env *testEnv) {
	t.Helper()

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1, "quantity": 1, "unit_price": 300000, "shop_id": "shop-a",
	})
	var line domain.CartLineItem
	decode(t, resp, &line)
	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/"+line.ID+"/toggle", nil)
	resp.Body.Close()

	resp = env.do(t, http.MethodPut, "/api/v1/shipping-profile", validProfileBody())
	resp.Body.Close()
}

func TestCheckout_Success(t *testing.T) {
	env := setupServer(t)
	submitReady(t, env)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "cash_on_delivery",
		"promo_code":     "TOTNGHIEP10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result submitResponseDTO
	decode(t, resp, &result)
	assert.Equal(t, "SUCCEEDED", result.Status)
	assert.Equal(t, "order-abc-123", result.OrderID)
	assert.Equal(t, "/orders/order-abc-123", result.Redirect)

	// The emptied selection was persisted.
	env.snapshots.mu.Lock()
	defer env.snapshots.mu.Unlock()
	assert.Empty(t, env.snapshots.lines["user123"])
}

func TestCheckout_EmptySelection(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "cash_on_delivery",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var result submitResponseDTO
	decode(t, resp, &result)
	assert.Equal(t, "/cart", result.Redirect)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]interface{}{
		"product_id": 1, "quantity": 1, "unit_price": 300000, "shop_id": "shop-a",
	})
	var line domain.CartLineItem
	decode(t, resp, &line)
	resp = env.do(t, http.MethodPost, "/api/v1/cart/items/"+line.ID+"/toggle", nil)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "cash_on_delivery",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var result submitResponseDTO
	decode(t, resp, &result)
	assert.Contains(t, result.FieldErrors, "full_name")
}

func TestCheckout_GatewayFailure(t *testing.T) {
	env := setupServer(t)
	submitReady(t, env)

	env.orders.mu.Lock()
	env.orders.err = &gateway.GatewayError{StatusCode: 422, Message: "product out of stock"}
	env.orders.mu.Unlock()

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "cash_on_delivery",
	})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var result submitResponseDTO
	decode(t, resp, &result)
	assert.Equal(t, "FAILED", result.Status)
	assert.Equal(t, "product out of stock", result.Message)

	// The cart is untouched and the attempt can be retried.
	resp = env.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cartView cartResponseDTO
	decode(t, resp, &cartView)
	assert.Len(t, cartView.Items, 1)
}

func TestCheckout_UnknownPaymentMethod(t *testing.T) {
	env := setupServer(t)
	submitReady(t, env)

	resp := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"payment_method": "bank_transfer",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutStatus(t *testing.T) {
	env := setupServer(t)

	resp := env.do(t, http.MethodGet, "/api/v1/checkout/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]string
	decode(t, resp, &status)
	assert.Equal(t, "IDLE", status["status"])
}
