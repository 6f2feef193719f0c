// Package cart holds the client-side cart state for one user session.
package cart

import (
	"strings"
	"sync"

	"github.com/jcmexdev/checkout-sessions/internal/session"
)

// Store is the authoritative cart for one session. It is created empty,
// passed explicitly to whoever needs it, and every mutation is visible to
// the next read.
type Store struct {
	mu    sync.RWMutex
	items []session.CartItem
	index map[string]int // productID -> position in items
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Add appends a product or increments the quantity of an existing one.
func (s *Store) Add(productID string, unit session.UnitDescriptor, quantity int64) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return session.NewFailure(session.KindInvalidRequest, "product id is required")
	}
	if unit.UnitPriceMinorUnits < 0 {
		return session.NewFailuref(session.KindInvalidPrice, "product %s has negative price %d", productID, unit.UnitPriceMinorUnits)
	}
	cur, err := session.NormalizeCurrency(unit.Currency)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.index[productID]; ok {
		next := s.items[pos].Quantity + quantity
		if next < 1 {
			return session.NewFailuref(session.KindInvalidQuantity, "product %s would have quantity %d", productID, next)
		}
		s.items[pos].Quantity = next
		return nil
	}

	if quantity < 1 {
		return session.NewFailuref(session.KindInvalidQuantity, "product %s added with quantity %d", productID, quantity)
	}
	s.index[productID] = len(s.items)
	s.items = append(s.items, session.CartItem{
		ProductID:           productID,
		Name:                unit.Name,
		UnitPriceMinorUnits: unit.UnitPriceMinorUnits,
		Currency:            cur,
		Quantity:            quantity,
	})
	return nil
}

// SetQuantity overwrites the quantity of a product already in the cart.
// Zero removes it.
func (s *Store) SetQuantity(productID string, quantity int64) error {
	if quantity < 0 {
		return session.NewFailuref(session.KindInvalidQuantity, "product %s cannot have quantity %d", productID, quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[productID]
	if quantity == 0 {
		if ok {
			s.removeAt(pos)
		}
		return nil
	}
	if !ok {
		return session.NewFailuref(session.KindInvalidQuantity, "product %s is not in the cart", productID)
	}
	s.items[pos].Quantity = quantity
	return nil
}

func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.index[productID]; ok {
		s.removeAt(pos)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[string]int)
}

func (s *Store) TotalItemCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalAmountMinorUnits returns the cart total and its currency. An empty
// cart totals zero with no currency.
func (s *Store) TotalAmountMinorUnits() (int64, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	cur := ""
	for _, it := range s.items {
		if cur == "" {
			cur = it.Currency
		} else if it.Currency != cur {
			return 0, "", session.NewFailuref(session.KindMixedCurrency, "cart holds %s and %s", cur, it.Currency)
		}
		total += it.Subtotal()
	}
	return total, cur, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []session.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]session.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Snapshot is Items under the name the checkout flow uses: the copy taken
// at the moment a submission starts.
func (s *Store) Snapshot() []session.CartItem {
	return s.Items()
}

func (s *Store) removeAt(pos int) {
	delete(s.index, s.items[pos].ProductID)
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].ProductID] = i
	}
}
