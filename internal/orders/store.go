package orders

import (
	"fmt"
	"sync"

	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
)

// Store holds the client's last validated view of each tracked order.
// Only the server advances status; the store applies what it is told,
// guarded by the transition rules.
type Store struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewStore returns an empty order store.
func NewStore() *Store {
	return &Store{orders: make(map[string]Order)}
}

// Put records a fresh order, typically right after checkout.
func (s *Store) Put(order Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

// Get returns the current local view of the order.
func (s *Store) Get(orderID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not tracked")
	}
	return order, nil
}

// ApplyEvent folds a push event into the local view. The ETA applies
// unconditionally; a status only applies when the transition rules
// allow it. An illegal status leaves the last known-good status in
// place and returns a state-conflict error for the caller to log.
func (s *Store) ApplyEvent(orderID string, event StatusEvent) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not tracked")
	}

	if event.EstimatedDeliveryTime != nil {
		order.EstimatedDeliveryTime = event.EstimatedDeliveryTime
		s.orders[orderID] = order
	}

	if event.Status == nil {
		return order, nil
	}
	next := *event.Status
	if !next.IsValid() {
		return order, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}
	if !order.Status.CanTransition(next) {
		return order, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("illegal transition %s to %s", order.Status, next))
	}

	order.Status = next
	s.orders[orderID] = order
	return order, nil
}

// ApplySnapshot overwrites the local view with an authoritative server
// snapshot, even when it skips intermediate states.
func (s *Store) ApplySnapshot(order Order) Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return order
}

// Forget drops the local view for an order that is no longer tracked.
func (s *Store) Forget(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, orderID)
}
