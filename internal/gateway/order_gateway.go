package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/openshop/checkout/internal/domain"
)

// OrderGateway creates orders on the remote order service. The two
// fulfillment variants (cash on delivery, prepaid redirect) are dispatched
// on the payload's method tag behind this single entry point.
type OrderGateway interface {
	Create(ctx context.Context, payload domain.OrderPayload) (string, error)
}

// GatewayError is a typed rejection from the order service. Message, when
// present, is safe to show to the shopper.
type GatewayError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order service rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("order service rejected request (%d)", e.StatusCode)
}

type orderResponse struct {
	OrderID string `json:"order_id"`
}

// HTTPOrderGateway talks JSON over HTTP to the order service, with a
// circuit breaker so a struggling order service fails fast instead of
// piling up submits.
type HTTPOrderGateway struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*orderResponse]
}

func NewHTTPOrderGateway(baseURL string, timeout time.Duration) *HTTPOrderGateway {
	settings := gobreaker.Settings{
		Name:    "order-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &HTTPOrderGateway{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*orderResponse](settings),
	}
}

func (g *HTTPOrderGateway) Create(ctx context.Context, payload domain.OrderPayload) (string, error) {
	var path string
	switch payload.Method {
	case domain.PaymentCashOnDelivery:
		path = "/api/v1/orders"
	case domain.PaymentPrepaidRedirect:
		path = "/api/v1/orders/prepaid"
	default:
		return "", fmt.Errorf("unknown payment method %q", payload.Method)
	}

	resp, err := g.breaker.Execute(func() (*orderResponse, error) {
		return g.post(ctx, g.baseURL+path, payload)
	})
	if err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

func (g *HTTPOrderGateway) post(ctx context.Context, url string, payload domain.OrderPayload) (*orderResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		// Best-effort decode; an unreadable body still yields a typed error.
		_ = json.NewDecoder(resp.Body).Decode(gwErr)
		return nil, gwErr
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if out.OrderID == "" {
		return nil, fmt.Errorf("order service returned no order id")
	}
	return &out, nil
}
