package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openshop/checkout/internal/domain"
)

// Store holds the authoritative list of cart line items for one shopper and
// derives per-shop groupings and selection aggregates on demand. It does no
// I/O; persistence is layered on top via the snapshot store.
//
// All mutations referencing an unknown line id are no-ops rather than
// errors, so retried UI events stay idempotent.
type Store struct {
	mu    sync.RWMutex
	lines []domain.CartLineItem // insertion order, also first-seen shop order
}

// NewStore creates an empty cart.
func NewStore() *Store {
	return &Store{}
}

// NewStoreFromLines creates a cart hydrated from a persisted snapshot.
// Lines with non-positive quantity are dropped on the way in.
func NewStoreFromLines(lines []domain.CartLineItem) *Store {
	s := &Store{lines: make([]domain.CartLineItem, 0, len(lines))}
	for _, l := range lines {
		if l.Quantity > 0 {
			s.lines = append(s.lines, l)
		}
	}
	return s
}

// AddItem adds a product to the cart. If a line with the same product id
// already exists its quantity is incremented; otherwise a new unselected
// line is appended. Returns the affected line. A non-positive quantity is
// a no-op.
func (s *Store) AddItem(productID int64, quantity int, meta domain.ProductMeta) *domain.CartLineItem {
	if quantity <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity += quantity
			line := s.lines[i]
			return &line
		}
	}

	line := domain.CartLineItem{
		ID:        uuid.New().String(),
		ProductID: productID,
		Name:      meta.Name,
		UnitPrice: meta.UnitPrice,
		ImageRef:  meta.ImageRef,
		Quantity:  quantity,
		ShopID:    meta.ShopID,
		Selected:  false,
		AddedAt:   time.Now(),
	}
	s.lines = append(s.lines, line)
	return &line
}

// SetQuantity sets the quantity of a line. A quantity of zero or less
// removes the line, so a zero-quantity line can never exist. Selection is
// left untouched.
func (s *Store) SetQuantity(lineID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ID != lineID {
			continue
		}
		if quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		} else {
			s.lines[i].Quantity = quantity
		}
		return
	}
}

// RemoveItem removes a line unconditionally.
func (s *Store) RemoveItem(lineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

// ToggleSelected flips the selection flag of a line.
func (s *Store) ToggleSelected(lineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ID == lineID {
			s.lines[i].Selected = !s.lines[i].Selected
			return
		}
	}
}

// SetShopSelection sets the selection flag of every line belonging to the
// given shop. Backs the per-seller "select all" toggle.
func (s *Store) SetShopSelection(shopID string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ShopID == shopID {
			s.lines[i].Selected = selected
		}
	}
}

// SelectedItems returns a copy of the currently selected lines.
func (s *Store) SelectedItems() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := make([]domain.CartLineItem, 0)
	for _, l := range s.lines {
		if l.Selected {
			selected = append(selected, l)
		}
	}
	return selected
}

// Lines returns a copy of all lines in insertion order.
func (s *Store) Lines() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartLineItem, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of lines in the cart.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// GroupedByShop partitions the lines by shop in first-seen shop order and
// computes the tri-state selection flag per group. The result is a pure
// projection; mutating it does not touch the cart.
func (s *Store) GroupedByShop() []domain.ShopGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make([]string, 0)
	byShop := make(map[string]*domain.ShopGroup)

	for _, l := range s.lines {
		g, ok := byShop[l.ShopID]
		if !ok {
			g = &domain.ShopGroup{ShopID: l.ShopID}
			byShop[l.ShopID] = g
			order = append(order, l.ShopID)
		}
		g.Items = append(g.Items, l)
		if l.Selected {
			g.SelectedCount++
		}
	}

	groups := make([]domain.ShopGroup, 0, len(order))
	for _, shopID := range order {
		g := byShop[shopID]
		switch {
		case g.SelectedCount == 0:
			g.Selection = domain.ShopSelectionNone
		case g.SelectedCount == len(g.Items):
			g.Selection = domain.ShopSelectionAll
		default:
			g.Selection = domain.ShopSelectionSome
		}
		groups = append(groups, *g)
	}
	return groups
}

// RemoveSelected removes every selected line, leaving unselected lines
// (other shops' items in a multi-shop cart) untouched. Called after a
// confirmed order covers the selected subset.
func (s *Store) RemoveSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if !l.Selected {
			kept = append(kept, l)
		}
	}
	s.lines = kept
}

// RemoveLines removes exactly the lines with the given ids, ignoring ids
// that are no longer present. Called after a confirmed order with the ids
// the order actually covered, so a line selected while the order call was
// in flight stays in the cart.
func (s *Store) RemoveLines(ids []string) {
	if len(ids) == 0 {
		return
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if _, ok := drop[l.ID]; !ok {
			kept = append(kept, l)
		}
	}
	s.lines = kept
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}
