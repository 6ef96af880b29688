package checkout

import (
	"context"
	"sync"

	"github.com/openshop/checkout/internal/domain"
	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/shipping"
)

type mockOrderGateway struct {
	mu       sync.Mutex
	payloads []domain.OrderPayload
	orderID  string
	err      error
}

func (m *mockOrderGateway) Create(_ context.Context, payload domain.OrderPayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.payloads = append(m.payloads, payload)
	return m.orderID, nil
}

func (m *mockOrderGateway) lastPayload() *domain.OrderPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.payloads) == 0 {
		return nil
	}
	p := m.payloads[len(m.payloads)-1]
	return &p
}

// blockingOrderGateway parks Create until released, so tests can interleave
// cart mutations with an in-flight order call.
type blockingOrderGateway struct {
	entered chan struct{} // closed when Create is reached
	release chan struct{} // Create returns once this closes
	orderID string
}

func newBlockingOrderGateway(orderID string) *blockingOrderGateway {
	return &blockingOrderGateway{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		orderID: orderID,
	}
}

func (m *blockingOrderGateway) Create(_ context.Context, _ domain.OrderPayload) (string, error) {
	close(m.entered)
	<-m.release
	return m.orderID, nil
}

type mockAuth struct {
	user *gateway.User
}

func (m *mockAuth) CurrentUser(context.Context) *gateway.User {
	return m.user
}

type mockPublisher struct {
	mu       sync.Mutex
	orderIDs []string
}

func (m *mockPublisher) OrderPlaced(_ context.Context, orderID string, _ domain.OrderPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderIDs = append(m.orderIDs, orderID)
}

func (m *mockPublisher) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.orderIDs))
	copy(out, m.orderIDs)
	return out
}

type mockProfileGateway struct {
	mu    sync.Mutex
	saves []domain.ShippingProfile
}

func (m *mockProfileGateway) Load(context.Context, string) (*domain.ShippingProfile, error) {
	return nil, shipping.ErrProfileNotFound
}

func (m *mockProfileGateway) Save(_ context.Context, _ string, profile domain.ShippingProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, profile)
	return nil
}

func (m *mockProfileGateway) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}
