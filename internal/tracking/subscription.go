package tracking

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/quickplate/ordercore/internal/orders"
)

// State describes the subscription's connection health. Reconnecting
// is a non-fatal affordance; the last known order view stays valid.
type State string

const (
	StateLive         State = "live"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Conn is the slice of a broker subscription the channel consumes.
// Satisfied by *redis.PubSub.
type Conn interface {
	Receive(ctx context.Context) (interface{}, error)
	Close() error
}

// Subscription is the disposable handle returned by Track. Its
// lifetime bounds the listener: Close releases the topic immediately
// and is safe to call any number of times, connected or not.
type Subscription struct {
	orderID string
	conn    Conn
	cancel  context.CancelFunc

	state     atomic.Value
	updates   chan orders.Order
	closeOnce sync.Once
	done      chan struct{}
}

func newSubscription(orderID string, conn Conn, cancel context.CancelFunc) *Subscription {
	s := &Subscription{
		orderID: orderID,
		conn:    conn,
		cancel:  cancel,
		updates: make(chan orders.Order, 16),
		done:    make(chan struct{}),
	}
	s.state.Store(StateLive)
	return s
}

// OrderID returns the order this subscription follows.
func (s *Subscription) OrderID() string {
	return s.orderID
}

// State reports the current connection state.
func (s *Subscription) State() State {
	return s.state.Load().(State)
}

// Updates streams validated order views as events and snapshots are
// applied. The channel closes when the subscription closes.
func (s *Subscription) Updates() <-chan orders.Order {
	return s.updates
}

// Done closes when the subscription has fully shut down.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close tears down the listener immediately. Idempotent.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(StateClosed)
		s.cancel()
		_ = s.conn.Close()
	})
	return nil
}

func (s *Subscription) setState(state State) {
	if s.State() == StateClosed {
		return
	}
	s.state.Store(state)
}

func (s *Subscription) publish(order orders.Order) {
	select {
	case s.updates <- order:
	default:
		// A slow consumer drops intermediate views; the latest state
		// is always recoverable from the order store.
	}
}

func (s *Subscription) finish() {
	s.state.Store(StateClosed)
	close(s.updates)
	close(s.done)
}
