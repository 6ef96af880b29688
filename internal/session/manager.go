// Package session keeps one cart/checkout core per authenticated shopper.
// A core is the in-memory CartStore, the debounced shipping profile sync
// and the checkout coordinator, hydrated from persistence on first touch
// and torn down after a period of inactivity.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openshop/checkout/internal/cart"
	"github.com/openshop/checkout/internal/checkout"
	"github.com/openshop/checkout/internal/events"
	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/pricing"
	"github.com/openshop/checkout/internal/shipping"
)

const (
	// DefaultIdleTTL is how long an untouched core lives.
	DefaultIdleTTL = 30 * time.Minute

	// CleanupInterval is how often the background eviction runs.
	CleanupInterval = time.Minute
)

// Core bundles the per-shopper components. The cart store is the single
// shared mutable resource; every surface goes through its API.
type Core struct {
	UserID   string
	Cart     *cart.Store
	Profiles *shipping.Sync
	Checkout *checkout.Coordinator
}

type managedCore struct {
	core     *Core
	lastSeen time.Time
}

// Deps are the collaborators a manager wires into every core.
type Deps struct {
	Snapshots cart.SnapshotStore
	Profiles  shipping.ProfileGateway
	Orders    gateway.OrderGateway
	Auth      gateway.AuthSession
	Publisher events.Publisher
	Rules     pricing.Rules
	Debounce  time.Duration
}

// Manager creates, caches and evicts cores.
type Manager struct {
	deps    Deps
	idleTTL time.Duration

	mu    sync.Mutex
	cores map[string]*managedCore
	sfg   singleflight.Group // prevents duplicate hydration per user

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewManager(deps Deps) *Manager {
	m := &Manager{
		deps:        deps,
		idleTTL:     DefaultIdleTTL,
		cores:       make(map[string]*managedCore),
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

// Get returns the shopper's core, hydrating it from the cart snapshot and
// the stored shipping profile on first touch. Concurrent first touches for
// the same user collapse into one hydration.
func (m *Manager) Get(ctx context.Context, userID string) (*Core, error) {
	m.mu.Lock()
	if mc, ok := m.cores[userID]; ok {
		mc.lastSeen = time.Now()
		core := mc.core
		m.mu.Unlock()
		return core, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sfg.Do(userID, func() (interface{}, error) {
		return m.hydrate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Core), nil
}

func (m *Manager) hydrate(ctx context.Context, userID string) (*Core, error) {
	// Another goroutine may have stored the core between the fast path
	// and the singleflight call.
	m.mu.Lock()
	if mc, ok := m.cores[userID]; ok {
		mc.lastSeen = time.Now()
		core := mc.core
		m.mu.Unlock()
		return core, nil
	}
	m.mu.Unlock()

	var store *cart.Store
	lines, err := m.deps.Snapshots.Load(ctx, userID)
	switch {
	case err == nil:
		store = cart.NewStoreFromLines(lines)
	case errors.Is(err, cart.ErrSnapshotMiss):
		store = cart.NewStore()
	default:
		log.Printf("cart snapshot load failed for user %s: %v", userID, err)
		store = cart.NewStore()
	}

	profileSync := shipping.NewSync(m.deps.Profiles, userID, m.deps.Debounce)
	profileSync.Hydrate(ctx)

	core := &Core{
		UserID:   userID,
		Cart:     store,
		Profiles: profileSync,
		Checkout: checkout.NewCoordinator(
			store,
			profileSync,
			m.deps.Orders,
			m.deps.Auth,
			m.deps.Publisher,
			m.deps.Rules,
		),
	}

	m.mu.Lock()
	m.cores[userID] = &managedCore{core: core, lastSeen: time.Now()}
	m.mu.Unlock()
	return core, nil
}

// PersistCart writes the shopper's current cart snapshot, best-effort.
// Handlers call this after every mutation.
func (m *Manager) PersistCart(ctx context.Context, core *Core) {
	if err := m.deps.Snapshots.Save(ctx, core.UserID, core.Cart.Lines()); err != nil {
		log.Printf("cart snapshot save failed for user %s: %v", core.UserID, err)
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	expired := make([]*Core, 0)
	for userID, mc := range m.cores {
		if mc.lastSeen.Before(cutoff) {
			expired = append(expired, mc.core)
			delete(m.cores, userID)
		}
	}
	m.mu.Unlock()

	for _, core := range expired {
		m.teardown(core)
	}
}

// teardown disposes the profile sync (so orphaned debounce timers become
// no-ops) and persists a final cart snapshot.
func (m *Manager) teardown(core *Core) {
	core.Profiles.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.PersistCart(ctx, core)
}

// Close stops the eviction loop and tears down every live core.
func (m *Manager) Close() {
	close(m.stopCleanup)
	m.wg.Wait()

	m.mu.Lock()
	remaining := make([]*Core, 0, len(m.cores))
	for userID, mc := range m.cores {
		remaining = append(remaining, mc.core)
		delete(m.cores, userID)
	}
	m.mu.Unlock()

	for _, core := range remaining {
		m.teardown(core)
	}
}
